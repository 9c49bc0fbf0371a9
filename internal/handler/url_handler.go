package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName = "URL Shortener"

	msgNotFound      = "short link not found"
	msgInternalError = "internal server error"
	msgCreateFailed  = "error creating short link"
)

type URLHandler struct {
	service service.URLService
	logger  *zap.Logger
}

func NewURLHandler(service service.URLService, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse тело ответа с ошибкой: строка или список ошибок валидации
type ErrorResponse struct {
	Detail any `json:"detail"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Shorten godoc
// @Summary Create a short link
// @Tags urls
// @Accept json
// @Produce json
// @Param request body models.ShortenInput true "Original URL"
// @Success 200 {object} models.URL
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/shorten [post]
func (h *URLHandler) Shorten(c *gin.Context) {
	var input models.ShortenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Detail: []service.ValidationError{bindError(err)},
		})
		return
	}

	url, err := h.service.Shorten(c.Request.Context(), &input)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Detail: []service.ValidationError{*vErr},
			})
			return
		}

		h.logger.Error("Failed to create short link", zap.Error(err))

		msg := err.Error()
		var sErr *service.StorageError
		if errors.As(err, &sErr) {
			msg = sErr.Err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Detail: msgCreateFailed + ": " + msg,
		})
		return
	}

	c.JSON(http.StatusOK, url)
}

// Redirect godoc
// @Summary Redirect to the original URL and count the click
// @Tags urls
// @Param short_code path string true "Short code"
// @Success 307 {object} nil
// @Failure 404 {object} ErrorResponse
// @Router /s/{short_code} [get]
func (h *URLHandler) Redirect(c *gin.Context) {
	code := c.Param("short_code")

	url, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.writeLookupError(c, code, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url.OriginalURL)
}

// Stats godoc
// @Summary Get click statistics for a short link
// @Tags urls
// @Produce json
// @Param short_code path string true "Short code"
// @Success 200 {object} models.URLStats
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/stats/{short_code} [get]
func (h *URLHandler) Stats(c *gin.Context) {
	code := c.Param("short_code")

	stats, err := h.service.Stats(c.Request.Context(), code)
	if err != nil {
		h.writeLookupError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck не обращается к хранилищу
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}

// bindError относит ошибку типа к полю, остальное к телу запроса
func bindError(err error) service.ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return service.ValidationError{
			Field:   typeErr.Field,
			Message: "must be a " + typeErr.Type.String(),
		}
	}
	return service.ValidationError{Field: "body", Message: "invalid JSON body"}
}

func (h *URLHandler) writeLookupError(c *gin.Context, code string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: msgNotFound})
		return
	}

	h.logger.Error("Failed to look up short link", zap.String("code", code), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgInternalError})
}

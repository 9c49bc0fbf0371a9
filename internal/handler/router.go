package handler

import (
	"github.com/SergeiKhy/shorturl/internal/middleware"
	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(urlService service.URLService, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))

	urlHandler := NewURLHandler(urlService, logger)

	router.GET("/health", HealthCheck)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/shorten", urlHandler.Shorten)
		v1.GET("/stats/:short_code", urlHandler.Stats)
	}

	// Редирект по короткому коду
	router.GET("/s/:short_code", urlHandler.Redirect)

	return router
}

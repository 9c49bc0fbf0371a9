package service

import (
	"context"
	"errors"
	"strings"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
	"github.com/SergeiKhy/shorturl/internal/shortcode"
)

var allowedSchemes = []string{"http://", "https://"}

// URLService интерфейс сервиса коротких ссылок
type URLService interface {
	Shorten(ctx context.Context, input *models.ShortenInput) (*models.URL, error)
	Resolve(ctx context.Context, code string) (*models.URL, error)
	Stats(ctx context.Context, code string) (*models.URLStats, error)
}

type urlService struct {
	repo repository.URLRepository
}

func NewURLService(repo repository.URLRepository) URLService {
	return &urlService{repo: repo}
}

// ValidateShortenInput проверяет входные данные до обращения к хранилищу
func ValidateShortenInput(input *models.ShortenInput) error {
	if input == nil || input.OriginalURL == "" {
		return &ValidationError{Field: "original_url", Message: "field required"}
	}
	for _, scheme := range allowedSchemes {
		if strings.HasPrefix(input.OriginalURL, scheme) {
			return nil
		}
	}
	return &ValidationError{
		Field:   "original_url",
		Message: "URL must start with http:// or https://",
	}
}

// Shorten создаёт короткую ссылку
func (s *urlService) Shorten(ctx context.Context, input *models.ShortenInput) (*models.URL, error) {
	if err := ValidateShortenInput(input); err != nil {
		return nil, err
	}

	url, err := s.repo.Create(ctx, input.OriginalURL)
	if err != nil {
		return nil, &StorageError{Op: "create short link", Err: err}
	}

	return url, nil
}

// Resolve находит ссылку по коду и засчитывает переход
func (s *urlService) Resolve(ctx context.Context, code string) (*models.URL, error) {
	url, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementClicks(ctx, url); err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "increment clicks", Err: err}
	}

	return url, nil
}

// Stats возвращает статистику без увеличения счётчика
func (s *urlService) Stats(ctx context.Context, code string) (*models.URLStats, error) {
	url, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}

	stats := url.Stats()
	return &stats, nil
}

// get не отправляет в хранилище коды, которые генератор выдать не мог
func (s *urlService) get(ctx context.Context, code string) (*models.URL, error) {
	if !shortcode.IsValid(code, shortcode.DefaultLength) {
		return nil, ErrNotFound
	}

	url, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get short link", Err: err}
	}
	return url, nil
}

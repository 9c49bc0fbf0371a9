package models

import (
	"time"
)

// URL запись о сокращённой ссылке
type URL struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

type ShortenInput struct {
	OriginalURL string `json:"original_url"`
}

// URLStats статистика по короткой ссылке (без id)
type URLStats struct {
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

func (u *URL) Stats() URLStats {
	return URLStats{
		OriginalURL: u.OriginalURL,
		ShortCode:   u.ShortCode,
		CreatedAt:   u.CreatedAt,
		Clicks:      u.Clicks,
	}
}

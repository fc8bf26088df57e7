package models

import (
	"time"
)

// Link хранит соответствие короткого кода и оригинального URL.
// ClickCount — денормализованный счётчик; источник истины — таблица clicks.
type Link struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	UserID      int64     `json:"user_id"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type ShortenInput struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
}

// LinkDTO представление ссылки в ответах API
type LinkDTO struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ClickCount  int64     `json:"clickCount"`
	CreatedTime time.Time `json:"createdTime"`
	Username    string    `json:"username"`
}

package models

import (
	"time"
)

// TimestampLayout ISO-8601 с миллисекундами в UTC, формат всех временных меток API
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp форматирует время в TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type ShortURL struct {
	ID          string
	OriginalURL string
	Shortcode   string
	CreatedAt   time.Time
	ExpiryTime  time.Time
	Validity    int // minutes
}

// Expired сообщает, истёк ли срок действия ссылки к моменту now
func (u *ShortURL) Expired(now time.Time) bool {
	return now.After(u.ExpiryTime)
}

type CreateShortURLInput struct {
	OriginalURL string
	Validity    *int
	Shortcode   *string
}

type CreatedShortURL struct {
	Shortcode string
	ShortLink string
	Expiry    time.Time
}

type Statistics struct {
	Shortcode   string
	OriginalURL string
	CreatedAt   time.Time
	ExpiryTime  time.Time
	TotalClicks int64
	Clicks      []Click
}

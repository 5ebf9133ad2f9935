package models

import (
	"time"
)

type Click struct {
	Timestamp time.Time
	Referrer  string
	Location  string
}

type ClickStats struct {
	TotalClicks int64
	Clicks      []Click
}

// ClickEvent публикуется в ленту кликов после каждого успешного редиректа.
// ClientLocation определяется по реальному IP клиента и в статистику реестра не попадает.
type ClickEvent struct {
	Shortcode      string    `json:"shortcode"`
	OriginalURL    string    `json:"original_url"`
	Referrer       string    `json:"referrer"`
	Location       string    `json:"location"`
	ClientIP       string    `json:"client_ip,omitempty"`
	ClientLocation string    `json:"client_location,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/shorturls/internal/models"
)

var (
	ErrNotFound   = errors.New("short url not found")
	ErrCodeExists = errors.New("shortcode already exists")
	ErrExpired    = errors.New("short url expired")
)

type ShortURLRepository interface {
	// Create вставляет ссылку вместе с пустой статистикой, если шорткод свободен
	Create(ctx context.Context, url *models.ShortURL) error
	// Exists проверяет занятость шорткода (с учётом регистра)
	Exists(ctx context.Context, shortcode string) bool
	// RecordClick атомарно проверяет срок действия и добавляет клик
	RecordClick(ctx context.Context, shortcode string, now time.Time, click models.Click) (*models.ShortURL, error)
	// GetWithStats возвращает копию ссылки и её статистики без проверки срока
	GetWithStats(ctx context.Context, shortcode string) (*models.ShortURL, *models.ClickStats, error)
	// DeleteExpired удаляет все ссылки с истёкшим сроком и возвращает их шорткоды
	DeleteExpired(ctx context.Context, now time.Time) []string
}

// record объединяет ссылку и её статистику: ключ map служит индексом существования,
// поэтому все три представления меняются одной операцией
type record struct {
	url   models.ShortURL
	stats models.ClickStats
}

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]*record
}

func NewMemoryRepository() ShortURLRepository {
	return &memoryRepository{
		records: make(map[string]*record),
	}
}

func (r *memoryRepository) Create(ctx context.Context, url *models.ShortURL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[url.Shortcode]; exists {
		return ErrCodeExists
	}

	r.records[url.Shortcode] = &record{
		url:   *url,
		stats: models.ClickStats{Clicks: []models.Click{}},
	}
	return nil
}

func (r *memoryRepository) Exists(ctx context.Context, shortcode string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.records[shortcode]
	return exists
}

func (r *memoryRepository) RecordClick(ctx context.Context, shortcode string, now time.Time, click models.Click) (*models.ShortURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[shortcode]
	if !exists {
		return nil, ErrNotFound
	}

	if rec.url.Expired(now) {
		return nil, ErrExpired
	}

	rec.stats.TotalClicks++
	rec.stats.Clicks = append(rec.stats.Clicks, click)

	url := rec.url
	return &url, nil
}

func (r *memoryRepository) GetWithStats(ctx context.Context, shortcode string) (*models.ShortURL, *models.ClickStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[shortcode]
	if !exists {
		return nil, nil, ErrNotFound
	}

	url := rec.url
	stats := &models.ClickStats{
		TotalClicks: rec.stats.TotalClicks,
		Clicks:      make([]models.Click, len(rec.stats.Clicks)),
	}
	copy(stats.Clicks, rec.stats.Clicks)

	return &url, stats, nil
}

func (r *memoryRepository) DeleteExpired(ctx context.Context, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for code, rec := range r.records {
		if rec.url.Expired(now) {
			delete(r.records, code)
			removed = append(removed, code)
		}
	}

	return removed
}

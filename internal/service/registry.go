package service

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/SergeiKhy/shorturls/internal/geo"
	"github.com/SergeiKhy/shorturls/internal/models"
	"github.com/SergeiKhy/shorturls/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Ошибки реестра
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrInvalidShortcode = errors.New("invalid shortcode")
	ErrInvalidValidity  = errors.New("validity must be a positive integer")
	ErrNotFound         = errors.New("shortcode not found")
	ErrExpired          = errors.New("url has expired")

	// Уточнения ErrInvalidShortcode, errors.Is(err, ErrInvalidShortcode) для них истинно
	ErrShortcodeNotAlphanumeric = fmt.Errorf("%w: must be alphanumeric", ErrInvalidShortcode)
	ErrShortcodeLength          = fmt.Errorf("%w: must be between %d and %d characters", ErrInvalidShortcode, minShortcodeLength, maxShortcodeLength)
	ErrShortcodeExists          = fmt.Errorf("%w: already exists", ErrInvalidShortcode)
)

// Константы реестра
const (
	DefaultValidity    = 30
	codeLength         = 6
	minShortcodeLength = 3
	maxShortcodeLength = 10
	charset            = "0123456789abcdefghijklmnopqrstuvwxyz"

	// Источник клика пока не берётся из запроса
	placeholderReferrer = "direct"
	placeholderIP       = "127.0.0.1"
)

// URLShortener операции реестра, доступные слою обработки запросов
type URLShortener interface {
	Create(ctx context.Context, input *models.CreateShortURLInput) (*models.CreatedShortURL, error)
	Resolve(ctx context.Context, shortcode string) (*models.ShortURL, *models.Click, error)
	GetStatistics(ctx context.Context, shortcode string) (*models.Statistics, error)
	Cleanup(ctx context.Context) int
}

// Option настраивает ShortcodeRegistry
type Option func(*ShortcodeRegistry)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(r *ShortcodeRegistry) {
		r.now = now
	}
}

// WithCodeGenerator подменяет генератор шорткодов
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(r *ShortcodeRegistry) {
		r.generateCode = generate
	}
}

// WithDefaultValidity задаёт срок жизни ссылки в минутах, если он не передан
func WithDefaultValidity(minutes int) Option {
	return func(r *ShortcodeRegistry) {
		if minutes > 0 {
			r.defaultValidity = minutes
		}
	}
}

// WithLocator задаёт определение местоположения для кликов
func WithLocator(locator geo.Locator) Option {
	return func(r *ShortcodeRegistry) {
		r.locator = locator
	}
}

// ShortcodeRegistry хранит короткие ссылки и их статистику кликов в памяти процесса.
// Создаётся один раз при старте и передаётся обработчикам явно.
type ShortcodeRegistry struct {
	repo            repository.ShortURLRepository
	baseURL         string
	defaultValidity int
	validate        *validator.Validate
	locator         geo.Locator
	logger          *zap.Logger
	now             func() time.Time
	generateCode    func() (string, error)
}

// NewShortcodeRegistry создаёт реестр; baseURL используется для построения коротких ссылок
func NewShortcodeRegistry(repo repository.ShortURLRepository, baseURL string, logger *zap.Logger, opts ...Option) *ShortcodeRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ShortcodeRegistry{
		repo:            repo,
		baseURL:         baseURL,
		defaultValidity: DefaultValidity,
		validate:        validator.New(),
		locator:         geo.StaticLocator{},
		logger:          logger,
		now:             time.Now,
		generateCode:    generateShortcode,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create создаёт короткую ссылку. Все проверки выполняются до записи в хранилище.
func (r *ShortcodeRegistry) Create(ctx context.Context, input *models.CreateShortURLInput) (*models.CreatedShortURL, error) {
	r.logger.Info("Creating short URL", zap.String("original_url", input.OriginalURL))

	if err := r.validateURL(input.OriginalURL); err != nil {
		r.logger.Warn("Invalid URL provided", zap.String("original_url", input.OriginalURL))
		return nil, err
	}

	validity := r.defaultValidity
	if input.Validity != nil {
		if *input.Validity <= 0 {
			return nil, ErrInvalidValidity
		}
		validity = *input.Validity
	}

	custom := input.Shortcode != nil && *input.Shortcode != ""
	if custom {
		if err := r.validateShortcode(ctx, *input.Shortcode); err != nil {
			r.logger.Warn("Invalid custom shortcode", zap.String("shortcode", *input.Shortcode), zap.Error(err))
			return nil, err
		}
	}

	createdAt := r.now()
	url := &models.ShortURL{
		ID:          uuid.NewString(),
		OriginalURL: input.OriginalURL,
		CreatedAt:   createdAt,
		ExpiryTime:  createdAt.Add(time.Duration(validity) * time.Minute),
		Validity:    validity,
	}

	if custom {
		url.Shortcode = *input.Shortcode
		if err := r.repo.Create(ctx, url); err != nil {
			if errors.Is(err, repository.ErrCodeExists) {
				return nil, ErrShortcodeExists
			}
			return nil, err
		}
	} else if err := r.createWithGeneratedCode(ctx, url); err != nil {
		return nil, err
	}

	r.logger.Info("Short URL created",
		zap.String("shortcode", url.Shortcode),
		zap.String("original_url", url.OriginalURL),
		zap.Time("expiry_time", url.ExpiryTime),
	)

	return &models.CreatedShortURL{
		Shortcode: url.Shortcode,
		ShortLink: r.baseURL + "/" + url.Shortcode,
		Expiry:    url.ExpiryTime,
	}, nil
}

// createWithGeneratedCode повторяет генерацию, пока код не окажется свободным.
// Пространство кодов 36^6, поэтому цикл завершается практически сразу.
func (r *ShortcodeRegistry) createWithGeneratedCode(ctx context.Context, url *models.ShortURL) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		code, err := r.generateCode()
		if err != nil {
			return fmt.Errorf("failed to generate shortcode: %w", err)
		}

		url.Shortcode = code
		err = r.repo.Create(ctx, url)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return err
		}

		r.logger.Debug("Generated shortcode collision, retrying", zap.String("shortcode", code))
	}
}

// Resolve возвращает ссылку по шорткоду и засчитывает клик.
// Истёкшие ссылки не удаляются здесь, это делает Cleanup.
func (r *ShortcodeRegistry) Resolve(ctx context.Context, shortcode string) (*models.ShortURL, *models.Click, error) {
	click := models.Click{
		Timestamp: r.now(),
		Referrer:  placeholderReferrer,
		Location:  r.locator.Locate(placeholderIP),
	}

	url, err := r.repo.RecordClick(ctx, shortcode, click.Timestamp, click)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			r.logger.Warn("Shortcode not found", zap.String("shortcode", shortcode))
			return nil, nil, ErrNotFound
		case errors.Is(err, repository.ErrExpired):
			r.logger.Warn("URL has expired", zap.String("shortcode", shortcode))
			return nil, nil, ErrExpired
		default:
			return nil, nil, err
		}
	}

	r.logger.Info("Original URL resolved",
		zap.String("shortcode", shortcode),
		zap.String("original_url", url.OriginalURL),
	)

	return url, &click, nil
}

// GetStatistics возвращает снимок статистики. Срок действия не проверяется:
// истёкшие ссылки доступны до очистки.
func (r *ShortcodeRegistry) GetStatistics(ctx context.Context, shortcode string) (*models.Statistics, error) {
	url, stats, err := r.repo.GetWithStats(ctx, shortcode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("Shortcode not found for statistics", zap.String("shortcode", shortcode))
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.logger.Info("URL statistics retrieved",
		zap.String("shortcode", shortcode),
		zap.Int64("total_clicks", stats.TotalClicks),
	)

	return &models.Statistics{
		Shortcode:   url.Shortcode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ExpiryTime:  url.ExpiryTime,
		TotalClicks: stats.TotalClicks,
		Clicks:      stats.Clicks,
	}, nil
}

// Cleanup удаляет истёкшие ссылки вместе со статистикой и возвращает их количество
func (r *ShortcodeRegistry) Cleanup(ctx context.Context) int {
	removed := r.repo.DeleteExpired(ctx, r.now())
	if len(removed) > 0 {
		r.logger.Info("Cleaned up expired URLs", zap.Int("removed", len(removed)))
	}
	return len(removed)
}

// validateURL требует абсолютный URL со схемой и портом в диапазоне 0-65535
func (r *ShortcodeRegistry) validateURL(rawURL string) error {
	if err := r.validate.Var(rawURL, "required,url"); err != nil {
		return ErrInvalidURL
	}

	parsed, err := neturl.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if port := parsed.Port(); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return ErrInvalidURL
		}
	}
	return nil
}

// validateShortcode проверяет формат кастомного кода (3-10 символов, буквы и цифры) и его занятость
func (r *ShortcodeRegistry) validateShortcode(ctx context.Context, code string) error {
	if err := r.validate.Var(code, "alphanum"); err != nil {
		return ErrShortcodeNotAlphanumeric
	}
	if len(code) < minShortcodeLength || len(code) > maxShortcodeLength {
		return ErrShortcodeLength
	}
	if r.repo.Exists(ctx, code) {
		return ErrShortcodeExists
	}
	return nil
}

// generateShortcode генерирует случайный код из строчных латинских букв и цифр
func generateShortcode() (string, error) {
	return gonanoid.Generate(charset, codeLength)
}

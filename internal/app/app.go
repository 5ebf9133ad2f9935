// Package app собирает сервис из компонентов и управляет его жизненным циклом.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/SergeiKhy/shorturls/internal/config"
	"github.com/SergeiKhy/shorturls/internal/geo"
	"github.com/SergeiKhy/shorturls/internal/handler"
	"github.com/SergeiKhy/shorturls/internal/middleware"
	"github.com/SergeiKhy/shorturls/internal/repository"
	"github.com/SergeiKhy/shorturls/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	registry       *service.ShortcodeRegistry
	clickProcessor service.ClickProcessor
	scheduler      *service.CleanupScheduler
	rateLimiter    *middleware.RateLimiter
	handler        http.Handler
	closers        []io.Closer
}

// New создаёт все компоненты сервиса. Внешние подключения (Redis, GeoIP) открываются здесь же.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	// Определение местоположения для кликов
	var locator geo.Locator = geo.StaticLocator{}
	if cfg.GeoIP.DatabasePath != "" {
		mm, err := geo.NewMaxMindLocator(cfg.GeoIP.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mm)
		locator = mm
		logger.Info("GeoIP database loaded", zap.String("path", cfg.GeoIP.DatabasePath))
	}

	// Лента событий кликов: Redis Pub/Sub либо журнал
	var publisher repository.EventPublisher
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, redis)
		publisher = repository.NewRedisPublisher(redis, cfg.Redis.Channel)
		logger.Info("Connected to Redis", zap.String("channel", cfg.Redis.Channel))
	} else {
		publisher = repository.NewLogPublisher(logger)
	}

	a.registry = service.NewShortcodeRegistry(
		repository.NewMemoryRepository(),
		cfg.App.BaseURL,
		logger,
		service.WithDefaultValidity(cfg.Shortener.DefaultValidity),
		service.WithLocator(locator),
	)
	a.clickProcessor = service.NewClickProcessor(publisher, locator, logger)
	a.scheduler = service.NewCleanupScheduler(a.registry, cfg.Shortener.CleanupInterval, logger)
	a.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	router := handler.NewRouter(a.registry, a.clickProcessor, a.rateLimiter, logger)
	a.handler = middleware.CORS(cfg.CORS.AllowedOrigins)(router)

	return a, nil
}

// Handler корневой HTTP-обработчик со всеми middleware
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run запускает фоновые компоненты и HTTP-сервер и блокируется до отмены ctx.
// После отмены сервер останавливается с таймаутом SHUTDOWN_TIMEOUT.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", ":"+a.cfg.App.Port)
	if err != nil {
		a.rateLimiter.Stop()
		a.close()
		return fmt.Errorf("failed to listen on port %s: %w", a.cfg.App.Port, err)
	}
	return a.Serve(ctx, listener)
}

// Serve то же, что Run, но на уже открытом listener
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	defer a.close()

	a.clickProcessor.Start()
	defer a.clickProcessor.Stop()

	a.scheduler.Start()
	defer a.scheduler.Stop()

	defer a.rateLimiter.Stop()

	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Server starting",
			zap.String("addr", listener.Addr().String()),
			zap.String("base_url", a.cfg.App.BaseURL),
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Graceful Shutdown
	g.Go(func() error {
		<-gCtx.Done()

		a.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.logger.Info("Server exited")
	return err
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}

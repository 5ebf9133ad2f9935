package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/shorturls/internal/geo"
	"github.com/SergeiKhy/shorturls/internal/models"
	"github.com/SergeiKhy/shorturls/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток публикации
)

// ClickProcessor интерфейс для асинхронной отправки кликов в ленту аналитики
type ClickProcessor interface {
	Start()
	Stop()
	RecordClick(ctx context.Context, event *models.ClickEvent) error
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	publisher    repository.EventPublisher
	locator      geo.Locator
	logger       *zap.Logger
	clickChannel chan *models.ClickEvent // Канал для событий кликов
	workerCount  int                     // Количество воркеров
	retryDelay   time.Duration           // Базовая задержка между попытками
	wg           sync.WaitGroup          // WaitGroup для ожидания завершения воркеров
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewClickProcessor создаёт новый экземпляр процессора кликов.
// locator определяет местоположение клиента по ClientIP события; nil отключает определение.
func NewClickProcessor(publisher repository.EventPublisher, locator geo.Locator, logger *zap.Logger) ClickProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locator == nil {
		locator = geo.StaticLocator{}
	}

	return &clickProcessor{
		publisher:    publisher,
		locator:      locator,
		logger:       logger,
		clickChannel: make(chan *models.ClickEvent, defaultChannelBuffer),
		workerCount:  defaultWorkerCount,
		retryDelay:   100 * time.Millisecond,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Starting click processor workers", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop останавливает worker pool, предварительно отправив события, оставшиеся в буфере
func (p *clickProcessor) Stop() {
	p.logger.Info("Stopping click processor...")
	p.cancel()
	p.wg.Wait()
	p.drain()
	p.logger.Info("Click processor stopped")
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Click worker started", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Click worker stopped", zap.Int("id", id))
			return

		case event, ok := <-p.clickChannel:
			if !ok {
				return
			}
			p.processClick(event)
		}
	}
}

// drain публикует то, что осталось в буфере после остановки воркеров
func (p *clickProcessor) drain() {
	for {
		select {
		case event := <-p.clickChannel:
			p.processClick(event)
		default:
			return
		}
	}
}

// processClick публикует одно событие клика с retry логикой
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	if event.ClientLocation == "" && event.ClientIP != "" {
		event.ClientLocation = p.locator.Locate(event.ClientIP)
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = p.publisher.Publish(ctx, event)
		cancel()
		if err == nil {
			return
		}

		if i < maxRetries-1 {
			p.logger.Debug("Retrying click publish",
				zap.String("shortcode", event.Shortcode),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.retryDelay)
		}
	}

	p.logger.Error("Failed to publish click after all retries",
		zap.String("shortcode", event.Shortcode),
		zap.Error(err),
	)
}

// RecordClick отправляет событие клика в worker pool (неблокирующая операция)
func (p *clickProcessor) RecordClick(ctx context.Context, event *models.ClickEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.clickChannel <- event:
		return nil
	default:
		// Канал заполнен: событие теряется, запрос не блокируется
		p.logger.Warn("Click channel buffer is full, event dropped",
			zap.String("shortcode", event.Shortcode),
		)
		return nil
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cleaner операция очистки, которую периодически вызывает планировщик
type Cleaner interface {
	Cleanup(ctx context.Context) int
}

// CleanupScheduler периодически удаляет истёкшие ссылки из реестра.
// Сам реестр очистку не планирует.
type CleanupScheduler struct {
	cleaner  Cleaner
	interval time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewCleanupScheduler создаёт планировщик; interval <= 0 отключает его
func NewCleanupScheduler(cleaner Cleaner, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CleanupScheduler{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger,
	}
}

// Start запускает цикл очистки в отдельной горутине
func (s *CleanupScheduler) Start() {
	if s.interval <= 0 {
		s.logger.Info("Cleanup scheduler disabled")
		return
	}

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("Starting cleanup scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop останавливает цикл и ждёт его завершения
func (s *CleanupScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Cleanup scheduler stopped")
}

func (s *CleanupScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.cleaner.Cleanup(ctx)
			s.logger.Debug("Cleanup sweep finished", zap.Int("removed", removed))
		}
	}
}

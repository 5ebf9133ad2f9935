package service_test

import (
	"testing"
	"time"

	"github.com/SergeiKhy/shorturls/internal/service"
	"github.com/SergeiKhy/shorturls/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCleanupScheduler_RunsPeriodically(t *testing.T) {
	cleaner := &mocks.MockCleaner{}
	scheduler := service.NewCleanupScheduler(cleaner, 10*time.Millisecond, zap.NewNop())
	scheduler.Start()

	assert.Eventually(t, func() bool {
		return cleaner.Calls() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	scheduler.Stop()
	calls := cleaner.Calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, cleaner.Calls(), "no sweeps after Stop")
}

func TestCleanupScheduler_Disabled(t *testing.T) {
	cleaner := &mocks.MockCleaner{}
	scheduler := service.NewCleanupScheduler(cleaner, 0, zap.NewNop())
	scheduler.Start()

	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()
	assert.Zero(t, cleaner.Calls())
}

package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SergeiKhy/shorturls/internal/models"
	"github.com/SergeiKhy/shorturls/internal/service"
	"github.com/SergeiKhy/shorturls/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestClickProcessor_PublishesEvents события доходят до публикатора
func TestClickProcessor_PublishesEvents(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	processor := service.NewClickProcessor(publisher, nil, zap.NewNop())
	processor.Start()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		err := processor.RecordClick(ctx, &models.ClickEvent{
			Shortcode: fmt.Sprintf("code%d", i),
			Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return len(publisher.Events()) == 10
	}, 2*time.Second, 10*time.Millisecond)

	processor.Stop()
}

// TestClickProcessor_RetriesOnFailure временная ошибка публикации повторяется
func TestClickProcessor_RetriesOnFailure(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	publisher.FailNext(2)

	processor := service.NewClickProcessor(publisher, nil, zap.NewNop())
	processor.Start()
	defer processor.Stop()

	require.NoError(t, processor.RecordClick(context.Background(), &models.ClickEvent{Shortcode: "retry1"}))

	assert.Eventually(t, func() bool {
		return len(publisher.Events()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, publisher.Attempts())
}

// TestClickProcessor_GivesUpAfterMaxRetries после исчерпания попыток событие теряется
func TestClickProcessor_GivesUpAfterMaxRetries(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	publisher.FailNext(3)

	processor := service.NewClickProcessor(publisher, nil, zap.NewNop())
	processor.Start()
	defer processor.Stop()

	require.NoError(t, processor.RecordClick(context.Background(), &models.ClickEvent{Shortcode: "lost1"}))

	assert.Eventually(t, func() bool {
		return publisher.Attempts() == 3
	}, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, publisher.Events())
}

// TestClickProcessor_StopDrainsBuffer события, принятые до Stop, публикуются
func TestClickProcessor_StopDrainsBuffer(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	processor := service.NewClickProcessor(publisher, nil, zap.NewNop())

	// воркеры не запущены: события копятся в буфере
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, processor.RecordClick(ctx, &models.ClickEvent{Shortcode: fmt.Sprintf("buf%d", i)}))
	}

	processor.Start()
	processor.Stop()

	assert.Len(t, publisher.Events(), 5)
}

// TestClickProcessor_CancelledContext отменённый контекст запроса возвращает ошибку
func TestClickProcessor_CancelledContext(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	processor := service.NewClickProcessor(publisher, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// буфер свободен, поэтому select может выбрать любую ветку
	err := processor.RecordClick(ctx, &models.ClickEvent{Shortcode: "ctx1"})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

// ipLocator возвращает заранее известные местоположения
type ipLocator map[string]string

func (l ipLocator) Locate(ip string) string {
	if loc, ok := l[ip]; ok {
		return loc
	}
	return "Unknown"
}

// TestClickProcessor_LocatesClient местоположение клиента определяется по его IP перед публикацией
func TestClickProcessor_LocatesClient(t *testing.T) {
	publisher := mocks.NewMockEventPublisher()
	locator := ipLocator{"81.2.69.142": "London, GB"}
	processor := service.NewClickProcessor(publisher, locator, zap.NewNop())
	processor.Start()

	ctx := context.Background()
	require.NoError(t, processor.RecordClick(ctx, &models.ClickEvent{Shortcode: "geo1", ClientIP: "81.2.69.142", Location: "Unknown"}))
	require.NoError(t, processor.RecordClick(ctx, &models.ClickEvent{Shortcode: "geo2", ClientIP: "10.0.0.1", Location: "Unknown"}))

	processor.Stop()

	events := publisher.Events()
	require.Len(t, events, 2)

	byCode := map[string]*models.ClickEvent{}
	for _, e := range events {
		byCode[e.Shortcode] = e
	}
	assert.Equal(t, "London, GB", byCode["geo1"].ClientLocation)
	assert.Equal(t, "Unknown", byCode["geo2"].ClientLocation)
	// Поле статистики остаётся прежним
	assert.Equal(t, "Unknown", byCode["geo1"].Location)
}

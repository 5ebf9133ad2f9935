package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SergeiKhy/shorturls/internal/models"
	"go.uber.org/zap"
)

// EventPublisher ships click events to an external analytics feed.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.ClickEvent) error
}

type redisPublisher struct {
	redis   *RedisDB
	channel string
}

// NewRedisPublisher publishes events as JSON messages on a Redis Pub/Sub channel.
func NewRedisPublisher(redis *RedisDB, channel string) EventPublisher {
	return &redisPublisher{redis: redis, channel: channel}
}

func (p *redisPublisher) Publish(ctx context.Context, event *models.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal click event: %w", err)
	}

	if err := p.redis.Client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish click event: %w", err)
	}

	return nil
}

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher writes events to the log at debug level; used when no feed is configured.
func NewLogPublisher(logger *zap.Logger) EventPublisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(ctx context.Context, event *models.ClickEvent) error {
	p.logger.Debug("Click event",
		zap.String("shortcode", event.Shortcode),
		zap.String("original_url", event.OriginalURL),
		zap.String("referrer", event.Referrer),
		zap.String("location", event.Location),
		zap.String("client_ip", event.ClientIP),
		zap.String("client_location", event.ClientLocation),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}

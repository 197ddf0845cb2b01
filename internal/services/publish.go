package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// publish sends a domain event once the unit of work has committed. A failed
// publish is logged and never fails the caller.
func publish(ctx context.Context, pub EventPublisher, log *zap.Logger, clock *Clock, eventType, key string, data interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := pub.Publish(ctx, DomainEvent{
		Type:       eventType,
		Key:        key,
		OccurredAt: clock.Now().Unix(),
		Data:       data,
	})
	if err != nil {
		log.Warn("failed to publish domain event", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

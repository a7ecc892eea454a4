package ports

import (
	"context"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, e *domain.Evaluation) error
	PublishBoardUpdate(ctx context.Context, snapshot *domain.MarketSnapshot) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeBoardUpdates(ctx context.Context, handler func(ctx context.Context, snapshot *domain.MarketSnapshot) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

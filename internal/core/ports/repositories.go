package ports

import (
	"context"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// DestinationRepository persists collection points loaded from external
// tabular sources. Export ports are static configuration and never stored.
type DestinationRepository interface {
	Upsert(ctx context.Context, d *domain.Destination) error
	UpsertBatch(ctx context.Context, ds []domain.Destination) error
	ListCollectionPoints(ctx context.Context) ([]domain.Destination, error)
	GetByName(ctx context.Context, name string) (*domain.Destination, error)
}

// MarketRepository persists the grain price board and FX rates.
type MarketRepository interface {
	LatestBoard(ctx context.Context) (map[string]float64, error)
	LatestRate(ctx context.Context) (float64, error)
	UpsertBoard(ctx context.Context, prices map[string]float64) error
	UpsertRate(ctx context.Context, rate float64) error
}

// EvaluationRepository persists completed ranking requests.
type EvaluationRepository interface {
	Insert(ctx context.Context, e *domain.Evaluation) error
	Stats(ctx context.Context) (*domain.EvaluationStats, error)
}

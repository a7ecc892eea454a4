package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/core/usecases"
	"github.com/agroruta/agroruta/internal/pkg/metrics"
)

// BoardActivities holds the activity implementations for the board refresh
// workflow.
type BoardActivities struct {
	Market    ports.MarketRepository
	MarketSvc *usecases.MarketService
	Registry  *usecases.RegistryService
	Publisher ports.EventPublisher
	// FetchBoard pulls the latest published prices and rate from the
	// upstream source. Left injectable so the worker binary decides where
	// prices come from.
	FetchBoard func(ctx context.Context) (map[string]float64, float64, error)
}

// BoardFetchResult carries one refresh cycle worth of market data.
type BoardFetchResult struct {
	Prices map[string]float64
	Rate   float64
}

// FetchLatestBoard pulls the current board and reference rate. When no
// upstream fetcher is configured, the built-in fallback constants are
// republished so downstream consumers still see a heartbeat.
func (a *BoardActivities) FetchLatestBoard(ctx context.Context) (*BoardFetchResult, error) {
	if a.FetchBoard == nil {
		return &BoardFetchResult{
			Prices: usecases.FallbackBoard,
			Rate:   usecases.FallbackReferenceRate,
		}, nil
	}

	prices, rate, err := a.FetchBoard(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	if rate <= 0 {
		return nil, domain.ErrInvalidRate
	}
	return &BoardFetchResult{Prices: prices, Rate: rate}, nil
}

// StoreBoard persists the fetched prices and rate.
func (a *BoardActivities) StoreBoard(ctx context.Context, result *BoardFetchResult) error {
	if err := a.Market.UpsertBoard(ctx, result.Prices); err != nil {
		return fmt.Errorf("store board: %w", err)
	}
	if err := a.Market.UpsertRate(ctx, result.Rate); err != nil {
		return fmt.Errorf("store rate: %w", err)
	}
	return nil
}

// InvalidateCaches drops the cached market snapshot so the next evaluation
// sees the fresh board.
func (a *BoardActivities) InvalidateCaches(ctx context.Context) error {
	if a.MarketSvc != nil {
		a.MarketSvc.Invalidate(ctx)
	}
	if a.Registry != nil {
		a.Registry.Invalidate(ctx)
	}
	return nil
}

// PublishBoardUpdate notifies subscribers that the board changed.
func (a *BoardActivities) PublishBoardUpdate(ctx context.Context, result *BoardFetchResult) error {
	if a.Publisher == nil {
		slog.Info("board updated (no publisher configured)", "rate", result.Rate)
		return nil
	}
	snapshot := &domain.MarketSnapshot{
		ReferenceRate:   result.Rate,
		BasePricePerTon: result.Prices,
	}
	if err := a.Publisher.PublishBoardUpdate(ctx, snapshot); err != nil {
		return fmt.Errorf("publish board update: %w", err)
	}
	metrics.BoardRefreshes.WithLabelValues("published").Inc()
	return nil
}

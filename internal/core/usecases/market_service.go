package usecases

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/pkg/metrics"
)

// FallbackReferenceRate is used when no live FX rate is available
// (ARS per USD).
const FallbackReferenceRate = 1050.0

// FallbackBoard is the built-in price board (USD/t) used when the live
// source is unavailable.
var FallbackBoard = map[string]float64{
	"soja":    298.50,
	"maiz":    175.20,
	"trigo":   210.00,
	"girasol": 315.00,
}

const snapshotCacheKey = "market:snapshot"

// MarketService provides the market snapshot an evaluation runs against.
// A failing or absent live source degrades to the fallback board instead of
// failing the request.
type MarketService struct {
	repo         ports.MarketRepository
	cache        ports.CacheService
	fallbackRate float64
}

// NewMarketService creates a new MarketService. A non-positive fallbackRate
// selects the built-in FallbackReferenceRate.
func NewMarketService(repo ports.MarketRepository, cache ports.CacheService, fallbackRate float64) *MarketService {
	if fallbackRate <= 0 {
		fallbackRate = FallbackReferenceRate
	}
	return &MarketService{repo: repo, cache: cache, fallbackRate: fallbackRate}
}

// Snapshot returns the current market snapshot. It never fails: when the
// live board or rate cannot be read, the documented fallback constants are
// returned with Fallback set, so the caller can surface data staleness.
func (s *MarketService) Snapshot(ctx context.Context) domain.MarketSnapshot {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, snapshotCacheKey); err == nil {
			var cached domain.MarketSnapshot
			if err := json.Unmarshal(data, &cached); err == nil && cached.ReferenceRate > 0 {
				return cached
			}
		}
	}

	snapshot, ok := s.liveSnapshot(ctx)
	if !ok {
		metrics.MarketFallbacks.Inc()
		return domain.MarketSnapshot{
			ReferenceRate:   s.fallbackRate,
			BasePricePerTon: FallbackBoard,
			Fallback:        true,
			AsOf:            time.Now(),
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			_ = s.cache.Set(ctx, snapshotCacheKey, data, 60)
		}
	}

	return snapshot
}

// Invalidate drops the cached snapshot, typically on a board-update event.
func (s *MarketService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, snapshotCacheKey)
	}
}

func (s *MarketService) liveSnapshot(ctx context.Context) (domain.MarketSnapshot, bool) {
	if s.repo == nil {
		return domain.MarketSnapshot{}, false
	}

	board, err := s.repo.LatestBoard(ctx)
	if err != nil || len(board) == 0 {
		slog.Warn("price board unavailable, using fallback", "error", err)
		return domain.MarketSnapshot{}, false
	}

	rate, err := s.repo.LatestRate(ctx)
	if err != nil || rate <= 0 {
		slog.Warn("fx rate unavailable, using fallback", "error", err)
		return domain.MarketSnapshot{}, false
	}

	return domain.MarketSnapshot{
		ReferenceRate:   rate,
		BasePricePerTon: board,
		AsOf:            time.Now(),
	}, true
}

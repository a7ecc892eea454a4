package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/engine"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/pkg/metrics"
)

// EvaluationOutcome bundles the ranked comparison table with the logistics
// derived from the best row.
type EvaluationOutcome struct {
	Results  []domain.DestinationResult `json:"results"`
	Best     domain.DestinationResult   `json:"best"`
	Market   domain.MarketSnapshot      `json:"market"`
	Fleet    domain.FleetPlan           `json:"fleet"`
	Advisory domain.RouteAdvisory       `json:"advisory"`
}

// RequestDefaults are the deployment-configured values applied to a request
// that leaves them unset. Zero fields keep the domain defaults.
type RequestDefaults struct {
	RadiusKm    float64
	TariffPerKm float64
}

// EvaluationService runs the profitability engine over the registry and
// records the outcome.
type EvaluationService struct {
	registry    *RegistryService
	market      *MarketService
	fleet       *FleetService
	evaluations ports.EvaluationRepository
	publisher   ports.EventPublisher
	defaults    RequestDefaults
}

// NewEvaluationService creates a new EvaluationService. The evaluation
// repository and publisher may be nil; persistence and events are
// best-effort and never fail a request.
func NewEvaluationService(
	registry *RegistryService,
	market *MarketService,
	fleet *FleetService,
	evaluations ports.EvaluationRepository,
	publisher ports.EventPublisher,
	defaults RequestDefaults,
) *EvaluationService {
	return &EvaluationService{
		registry:    registry,
		market:      market,
		fleet:       fleet,
		evaluations: evaluations,
		publisher:   publisher,
		defaults:    defaults,
	}
}

// applyDefaults fills unset request fields from the configured defaults.
func (s *EvaluationService) applyDefaults(req domain.ShipmentRequest) domain.ShipmentRequest {
	if req.RadiusKm <= 0 && s.defaults.RadiusKm > 0 {
		req.RadiusKm = s.defaults.RadiusKm
	}
	if req.FreightTariffPerKmLocal <= 0 && s.defaults.TariffPerKm > 0 {
		req.FreightTariffPerKmLocal = s.defaults.TariffPerKm
	}
	return req
}

// Evaluate ranks every eligible destination for the request and returns the
// comparison table plus fleet planning for the best option.
func (s *EvaluationService) Evaluate(ctx context.Context, req domain.ShipmentRequest) (*EvaluationOutcome, error) {
	req = s.applyDefaults(req)

	destinations, err := s.registry.AllDestinations(ctx)
	if err != nil {
		return nil, err
	}

	market := s.market.Snapshot(ctx)

	results, err := engine.Rank(req, destinations, market)
	if err != nil {
		return nil, err
	}
	best := results[0]

	metrics.EvaluationsTotal.WithLabelValues(req.GrainKind).Inc()
	metrics.DestinationsEvaluated.Observe(float64(len(results)))
	if skipped := len(destinations) - len(results); skipped > 0 {
		metrics.DestinationsSkippedRadius.Add(float64(skipped))
	}

	record := &domain.Evaluation{
		GrainKind:       req.GrainKind,
		Tonnage:         req.Tonnage,
		Origin:          req.Origin,
		BestDestination: best.DestinationName,
		NetTotal:        best.NetTotal,
		CreatedAt:       time.Now(),
	}
	if s.evaluations != nil {
		if err := s.evaluations.Insert(ctx, record); err != nil {
			slog.Warn("evaluation not persisted", "error", err)
		}
	}
	if s.publisher != nil {
		_ = s.publisher.PublishEvaluation(ctx, record)
	}

	return &EvaluationOutcome{
		Results:  results,
		Best:     best,
		Market:   market,
		Fleet:    s.fleet.Plan(req.Tonnage, best.DistanceKm, req.FreightTariffPerKmLocal),
		Advisory: s.fleet.Advisory(best.DestinationName),
	}, nil
}

// RouteSheet evaluates the request and renders driver instructions for the
// winning destination.
func (s *EvaluationService) RouteSheet(ctx context.Context, req domain.ShipmentRequest) (string, error) {
	req = s.applyDefaults(req)
	outcome, err := s.Evaluate(ctx, req)
	if err != nil {
		return "", err
	}
	return s.fleet.RouteSheet(req, outcome.Best, outcome.Fleet), nil
}

// Stats aggregates persisted evaluations.
func (s *EvaluationService) Stats(ctx context.Context) (*domain.EvaluationStats, error) {
	if s.evaluations == nil {
		return &domain.EvaluationStats{ByGrain: map[string]int{}}, nil
	}
	return s.evaluations.Stats(ctx)
}

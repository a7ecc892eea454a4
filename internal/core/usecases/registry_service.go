package usecases

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/ports"
)

// DefaultPorts is the fixed export-terminal set. Ports are configuration,
// not data: they never come from the loader and carry no price differential.
var DefaultPorts = []domain.Destination{
	{
		Name:     "Puerto Rosario",
		Operator: "Viterra / Cargill",
		Location: domain.Coordinate{Lat: -32.9468, Lon: -60.6393},
		Category: domain.CategoryPort,
	},
	{
		Name:     "Puerto Bahía Blanca",
		Operator: "ADM / Dreyfus",
		Location: domain.Coordinate{Lat: -38.7183, Lon: -62.2664},
		Category: domain.CategoryPort,
	},
	{
		Name:     "Puerto Quequén",
		Operator: "ACA / COFCO",
		Location: domain.Coordinate{Lat: -38.5858, Lon: -58.7131},
		Category: domain.CategoryPort,
	},
}

// RegistryService exposes the destination registry: static ports unioned
// with collection points loaded from storage. Read-only after construction.
type RegistryService struct {
	ports []domain.Destination
	repo  ports.DestinationRepository
	cache ports.CacheService
}

// NewRegistryService creates a RegistryService. A nil port slice falls back
// to DefaultPorts; an explicitly empty slice stays empty.
func NewRegistryService(staticPorts []domain.Destination, repo ports.DestinationRepository, cache ports.CacheService) *RegistryService {
	if staticPorts == nil {
		staticPorts = DefaultPorts
	}
	return &RegistryService{ports: staticPorts, repo: repo, cache: cache}
}

// AllDestinations returns ports plus every valid stored collection point.
// Rows with an empty name or out-of-range coordinate are dropped and
// counted, never fatal: partial data must not block an otherwise-valid
// registry.
func (s *RegistryService) AllDestinations(ctx context.Context) ([]domain.Destination, error) {
	cacheKey := "destinations:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.Destination
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	all := make([]domain.Destination, 0, len(s.ports))
	all = append(all, s.ports...)

	if s.repo != nil {
		points, err := s.repo.ListCollectionPoints(ctx)
		if err != nil {
			return nil, err
		}
		valid, dropped := filterValid(points)
		if dropped > 0 {
			slog.Warn("registry rows dropped", "dropped", dropped, "kept", len(valid))
		}
		all = append(all, valid...)
	}

	// Registry changes only on loader runs; 5 minutes is plenty.
	if s.cache != nil {
		if data, err := json.Marshal(all); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return all, nil
}

// Ports returns the static port set.
func (s *RegistryService) Ports() []domain.Destination {
	return s.ports
}

// DestinationByName resolves a destination by exact name. Static ports are
// checked before stored collection points. Returns nil when unknown.
func (s *RegistryService) DestinationByName(ctx context.Context, name string) (*domain.Destination, error) {
	for i := range s.ports {
		if s.ports[i].Name == name {
			d := s.ports[i]
			return &d, nil
		}
	}
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetByName(ctx, name)
}

// Invalidate clears the cached destination list after a loader run.
func (s *RegistryService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "destinations:all")
	}
}

func filterValid(points []domain.Destination) ([]domain.Destination, int) {
	valid := points[:0:0]
	dropped := 0
	for _, p := range points {
		if p.Name == "" || p.Location.Validate() != nil {
			dropped++
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped
}

// BuildCollectionPoints turns raw loader records into destinations,
// dropping malformed rows (empty name, out-of-range coordinate). The
// dropped count is returned for data-quality logging.
func BuildCollectionPoints(records []domain.CollectionPointRecord) ([]domain.Destination, int) {
	destinations := make([]domain.Destination, 0, len(records))
	dropped := 0
	for _, rec := range records {
		loc := domain.Coordinate{Lat: rec.Lat, Lon: rec.Lon}
		if rec.Name == "" || loc.Validate() != nil {
			dropped++
			continue
		}
		destinations = append(destinations, domain.Destination{
			Name:              rec.Name,
			Location:          loc,
			Category:          domain.CategoryCollectionPoint,
			PriceDifferential: rec.Differential,
		})
	}
	return destinations, dropped
}

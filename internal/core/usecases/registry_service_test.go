package usecases_test

import (
	"context"
	"testing"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/usecases"
)

// --- Mock DestinationRepository ---

type mockDestinationRepo struct {
	listFn func(ctx context.Context) ([]domain.Destination, error)
	getFn  func(ctx context.Context, name string) (*domain.Destination, error)
}

func (m *mockDestinationRepo) Upsert(ctx context.Context, d *domain.Destination) error { return nil }
func (m *mockDestinationRepo) UpsertBatch(ctx context.Context, ds []domain.Destination) error {
	return nil
}
func (m *mockDestinationRepo) GetByName(ctx context.Context, name string) (*domain.Destination, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return nil, nil
}

func (m *mockDestinationRepo) ListCollectionPoints(ctx context.Context) ([]domain.Destination, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Tests ---

func TestRegistryService_AllDestinations(t *testing.T) {
	repo := &mockDestinationRepo{
		listFn: func(ctx context.Context) ([]domain.Destination, error) {
			return []domain.Destination{
				{Name: "Acopio Pergamino", Category: domain.CategoryCollectionPoint,
					Location: domain.Coordinate{Lat: -33.8894, Lon: -60.5727}, PriceDifferential: -6},
			}, nil
		},
	}

	svc := usecases.NewRegistryService(nil, repo, nil)
	all, err := svc.AllDestinations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(usecases.DefaultPorts)+1 {
		t.Fatalf("expected %d destinations, got %d", len(usecases.DefaultPorts)+1, len(all))
	}
	if all[0].Category != domain.CategoryPort {
		t.Errorf("expected ports first, got %s", all[0].Category)
	}
}

func TestRegistryService_DropsMalformedRows(t *testing.T) {
	repo := &mockDestinationRepo{
		listFn: func(ctx context.Context) ([]domain.Destination, error) {
			return []domain.Destination{
				{Name: "", Category: domain.CategoryCollectionPoint,
					Location: domain.Coordinate{Lat: -34, Lon: -61}},
				{Name: "Acopio Fuera de Rango", Category: domain.CategoryCollectionPoint,
					Location: domain.Coordinate{Lat: -95, Lon: -61}},
				{Name: "Acopio Válido", Category: domain.CategoryCollectionPoint,
					Location: domain.Coordinate{Lat: -34.5, Lon: -61.2}},
			}, nil
		},
	}

	svc := usecases.NewRegistryService([]domain.Destination{}, repo, nil)
	all, err := svc.AllDestinations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected only the valid row, got %d", len(all))
	}
	if all[0].Name != "Acopio Válido" {
		t.Errorf("expected Acopio Válido, got %s", all[0].Name)
	}
}

func TestRegistryService_NoRepo(t *testing.T) {
	svc := usecases.NewRegistryService(nil, nil, nil)
	all, err := svc.AllDestinations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(usecases.DefaultPorts) {
		t.Fatalf("expected just the ports, got %d", len(all))
	}
}

func TestRegistryService_DestinationByName(t *testing.T) {
	repo := &mockDestinationRepo{
		getFn: func(ctx context.Context, name string) (*domain.Destination, error) {
			if name == "Acopio Pergamino" {
				return &domain.Destination{Name: name, Category: domain.CategoryCollectionPoint}, nil
			}
			return nil, nil
		},
	}
	svc := usecases.NewRegistryService(nil, repo, nil)

	// Static ports resolve without touching storage.
	d, err := svc.DestinationByName(context.Background(), "Puerto Rosario")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Category != domain.CategoryPort {
		t.Fatalf("expected the static port, got %+v", d)
	}

	d, err = svc.DestinationByName(context.Background(), "Acopio Pergamino")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Category != domain.CategoryCollectionPoint {
		t.Fatalf("expected the stored collection point, got %+v", d)
	}

	d, err = svc.DestinationByName(context.Background(), "Acopio Fantasma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil for an unknown name, got %+v", d)
	}
}

func TestBuildCollectionPoints(t *testing.T) {
	records := []domain.CollectionPointRecord{
		{Name: "Acopio Junín", Lat: -34.5939, Lon: -60.9433, Differential: -6},
		{Name: "", Lat: -34, Lon: -61},         // missing name
		{Name: "Acopio Roto", Lat: 120, Lon: 0}, // bad latitude
		{Name: "Cooperativa Chacabuco", Lat: -34.6417, Lon: -60.4742, Differential: -8},
	}

	points, dropped := usecases.BuildCollectionPoints(records)
	if dropped != 2 {
		t.Errorf("expected 2 dropped rows, got %d", dropped)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 valid points, got %d", len(points))
	}
	for _, p := range points {
		if p.Category != domain.CategoryCollectionPoint {
			t.Errorf("%s: expected collection_point category, got %s", p.Name, p.Category)
		}
	}
	if points[1].PriceDifferential != -8 {
		t.Errorf("expected differential -8, got %f", points[1].PriceDifferential)
	}
}

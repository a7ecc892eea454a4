package engine_test

import (
	"errors"
	"math"
	"testing"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/engine"
)

func testMarket() domain.MarketSnapshot {
	return domain.MarketSnapshot{
		ReferenceRate: 1050,
		BasePricePerTon: map[string]float64{
			"soja": 298.50,
			"maiz": 175.20,
		},
	}
}

func testRequest() domain.ShipmentRequest {
	return domain.ShipmentRequest{
		GrainKind:               "soja",
		Tonnage:                 30,
		Origin:                  domain.Coordinate{Lat: 0, Lon: 0},
		FreightTariffPerKmLocal: 1350,
		RadiusKm:                50,
	}
}

func TestRank_PortsAlwaysEligible(t *testing.T) {
	// A port ~1100 km away must still appear.
	destinations := []domain.Destination{
		{Name: "Puerto Lejano", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 10, Lon: 0}},
	}

	results, err := engine.Rank(testRequest(), destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].DestinationName != "Puerto Lejano" {
		t.Fatalf("expected the distant port in results, got %+v", results)
	}
	if results[0].DistanceKm < 1000 {
		t.Errorf("expected distance > 1000 km, got %f", results[0].DistanceKm)
	}
}

func TestRank_CollectionPointRadiusFilter(t *testing.T) {
	// 0.47 deg of latitude is ~52 km: outside the 50 km radius even though
	// its net would be positive. 0.2 deg (~22 km) stays in.
	destinations := []domain.Destination{
		{Name: "Acopio Cerca", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.2, Lon: 0}, PriceDifferential: -6},
		{Name: "Acopio Lejos", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.47, Lon: 0}, PriceDifferential: -6},
	}

	results, err := engine.Rank(testRequest(), destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].DestinationName != "Acopio Cerca" {
		t.Errorf("expected Acopio Cerca, got %s", results[0].DestinationName)
	}
}

func TestRank_DefaultRadiusWhenUnset(t *testing.T) {
	// A request without a radius gets the 50 km default: the same pair as
	// above must filter identically.
	req := testRequest()
	req.RadiusKm = 0
	destinations := []domain.Destination{
		{Name: "Acopio Cerca", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.2, Lon: 0}, PriceDifferential: -6},
		{Name: "Acopio Lejos", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.47, Lon: 0}, PriceDifferential: -6},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].DestinationName != "Acopio Cerca" {
		t.Fatalf("expected only Acopio Cerca under the default radius, got %+v", results)
	}
}

func TestRank_ZeroDistancePort(t *testing.T) {
	// Origin on the port itself: freight is zero and net equals gross minus
	// non-freight deductions.
	req := testRequest()
	req.Expenses = domain.ExpenseConfig{
		CommissionPct: 2,
		FixedPerTon:   []domain.ExpenseItem{{Name: "laboratorio", AmountPerTon: 1.5}},
	}
	destinations := []domain.Destination{
		{Name: "Puerto Origen", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 0, Lon: 0}},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.DistanceKm != 0 || r.FreightCostPerTon != 0 {
		t.Fatalf("expected zero distance and freight, got %f km / %f USD/t",
			r.DistanceKm, r.FreightCostPerTon)
	}
	wantNet := r.GrossValue - r.PercentageDeduction - 1.5*req.Tonnage
	if math.Abs(r.NetTotal-wantNet) > 1e-9 {
		t.Errorf("net total: expected %f, got %f", wantNet, r.NetTotal)
	}
}

func TestRank_SortedByNetTotalDescending(t *testing.T) {
	req := testRequest()
	req.RadiusKm = 500
	destinations := []domain.Destination{
		{Name: "Acopio A", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.4, Lon: 0}, PriceDifferential: -6},
		{Name: "Puerto B", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 3, Lon: 0}},
		{Name: "Puerto C", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 0.1, Lon: 0}},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].NetTotal > results[i-1].NetTotal {
			t.Errorf("results not sorted: %f before %f",
				results[i-1].NetTotal, results[i].NetTotal)
		}
	}
	if results[0].DestinationName != "Puerto C" {
		t.Errorf("expected nearest port first, got %s", results[0].DestinationName)
	}
}

func TestRank_TieBreakByName(t *testing.T) {
	// Zero tariff makes distance irrelevant; identical ports tie on net
	// total and must come out in name order.
	req := testRequest()
	req.FreightTariffPerKmLocal = 0
	destinations := []domain.Destination{
		{Name: "Puerto Zeta", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 2, Lon: 0}},
		{Name: "Puerto Alfa", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 1, Lon: 0}},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].DestinationName != "Puerto Alfa" {
		t.Errorf("expected Puerto Alfa first on tie, got %s", results[0].DestinationName)
	}
}

func TestRank_NegativeNetIsReturned(t *testing.T) {
	req := testRequest()
	req.Expenses = domain.ExpenseConfig{CommissionPct: 60, ShrinkagePct: 50}
	destinations := []domain.Destination{
		{Name: "Puerto Rosario", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 0.1, Lon: 0}},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("expected loss result, not error: %v", err)
	}
	if results[0].NetTotal >= 0 {
		t.Errorf("expected negative net total, got %f", results[0].NetTotal)
	}
}

func TestRank_EmptyRegistry(t *testing.T) {
	_, err := engine.Rank(testRequest(), nil, testMarket())
	if !errors.Is(err, domain.ErrNoEligibleDestinations) {
		t.Errorf("expected ErrNoEligibleDestinations, got %v", err)
	}
}

func TestRank_RequestValidation(t *testing.T) {
	destinations := []domain.Destination{
		{Name: "Puerto Rosario", Category: domain.CategoryPort},
	}

	cases := []struct {
		name    string
		mutate  func(*domain.ShipmentRequest, *domain.MarketSnapshot)
		wantErr error
	}{
		{"bad latitude", func(r *domain.ShipmentRequest, m *domain.MarketSnapshot) {
			r.Origin.Lat = 91
		}, domain.ErrInvalidCoordinate},
		{"zero tonnage", func(r *domain.ShipmentRequest, m *domain.MarketSnapshot) {
			r.Tonnage = 0
		}, domain.ErrInvalidTonnage},
		{"zero rate", func(r *domain.ShipmentRequest, m *domain.MarketSnapshot) {
			m.ReferenceRate = 0
		}, domain.ErrInvalidRate},
		{"unknown grain", func(r *domain.ShipmentRequest, m *domain.MarketSnapshot) {
			r.GrainKind = "centeno"
		}, domain.ErrUnknownGrain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			market := testMarket()
			tc.mutate(&req, &market)
			if _, err := engine.Rank(req, destinations, market); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRank_NetTotalInvariant(t *testing.T) {
	req := testRequest()
	req.RadiusKm = 300
	req.Expenses = domain.ExpenseConfig{
		CommissionPct: 3, ShrinkagePct: 0.25,
		FixedPerTon: []domain.ExpenseItem{{Name: "flete corto", AmountPerTon: 4.2}},
	}
	destinations := []domain.Destination{
		{Name: "Puerto Quequén", Category: domain.CategoryPort,
			Location: domain.Coordinate{Lat: 2, Lon: 1}},
		{Name: "Acopio Junín", Category: domain.CategoryCollectionPoint,
			Location: domain.Coordinate{Lat: 0.5, Lon: 0.5}, PriceDifferential: -7},
	}

	results, err := engine.Rank(req, destinations, testMarket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if math.Abs(r.NetTotal-r.NetPerTon*req.Tonnage) > 1e-6 {
			t.Errorf("%s: netTotal %f != netPerTon*tonnage %f",
				r.DestinationName, r.NetTotal, r.NetPerTon*req.Tonnage)
		}
	}
}

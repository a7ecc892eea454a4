package domain

import (
	"math"
	"time"
)

// Coordinate is a geographic point (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is inside valid WGS-84 ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return ErrInvalidCoordinate
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// DestinationCategory distinguishes export ports from local buyers.
type DestinationCategory string

const (
	// CategoryPort is a fixed export terminal, always eligible regardless of distance.
	CategoryPort DestinationCategory = "port"
	// CategoryCollectionPoint is a local elevator or cooperative, eligible only within a radius.
	CategoryCollectionPoint DestinationCategory = "collection_point"
)

// Destination is a candidate buyer for a grain lot. Immutable after load.
type Destination struct {
	Name     string              `json:"name"`
	Operator string              `json:"operator,omitempty"`
	Location Coordinate          `json:"location"`
	Category DestinationCategory `json:"category"`
	// PriceDifferential is subtracted from the board price per ton.
	// 0 for ports; typically -5..-8 USD/t for collection points.
	PriceDifferential float64 `json:"price_differential"`
}

// CollectionPointRecord is a raw row from an external tabular source,
// before registry validation.
type CollectionPointRecord struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Differential float64 `json:"differential"`
}

// MarketSnapshot is the market state a single evaluation runs against.
type MarketSnapshot struct {
	// ReferenceRate is units of local currency per unit of reference
	// currency (ARS per USD). Must be > 0.
	ReferenceRate float64 `json:"reference_rate"`
	// BasePricePerTon maps grain kind to its board price in USD/t.
	BasePricePerTon map[string]float64 `json:"base_price_per_ton"`
	// Fallback is true when the snapshot came from built-in constants
	// because the live source was unavailable.
	Fallback bool      `json:"fallback"`
	AsOf     time.Time `json:"as_of"`
}

// BasePrice returns the board price for a grain kind.
func (m MarketSnapshot) BasePrice(grainKind string) (float64, error) {
	price, ok := m.BasePricePerTon[grainKind]
	if !ok || price <= 0 {
		return 0, ErrUnknownGrain
	}
	return price, nil
}

// ExpenseItem is a named fixed deduction in USD per ton.
type ExpenseItem struct {
	Name         string  `json:"name"`
	AmountPerTon float64 `json:"amount_per_ton"`
}

// ExpenseConfig holds the commercial deductions applied to every destination.
type ExpenseConfig struct {
	CommissionPct float64       `json:"commission_pct"`
	ShrinkagePct  float64       `json:"shrinkage_pct"`
	FixedPerTon   []ExpenseItem `json:"fixed_per_ton,omitempty"`
}

// FixedPerTonTotal sums the fixed per-ton items, excluding freight.
func (e ExpenseConfig) FixedPerTonTotal() float64 {
	var total float64
	for _, item := range e.FixedPerTon {
		total += item.AmountPerTon
	}
	return total
}

// DefaultRadiusKm is the collection-point eligibility radius used when a
// request does not specify one.
const DefaultRadiusKm = 50.0

// ShipmentRequest describes one lot to be evaluated against the registry.
type ShipmentRequest struct {
	GrainKind string     `json:"grain_kind"`
	Tonnage   float64    `json:"tonnage"`
	Origin    Coordinate `json:"origin"`
	// FreightTariffPerKmLocal is the ton-normalized transport tariff in
	// ARS per km. Truck-level tariffs must be divided by truck capacity
	// before they reach the engine.
	FreightTariffPerKmLocal float64       `json:"freight_tariff_per_km_local"`
	RadiusKm                float64       `json:"radius_km,omitempty"`
	Expenses                ExpenseConfig `json:"expenses"`
}

// Validate checks the request-level preconditions. Registry data quality is
// handled separately at load time.
func (r ShipmentRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return err
	}
	if r.Tonnage <= 0 || math.IsNaN(r.Tonnage) {
		return ErrInvalidTonnage
	}
	if r.FreightTariffPerKmLocal < 0 {
		return ErrInvalidTariff
	}
	return nil
}

// EffectiveRadiusKm returns the request radius, or the default when unset.
func (r ShipmentRequest) EffectiveRadiusKm() float64 {
	if r.RadiusKm > 0 {
		return r.RadiusKm
	}
	return DefaultRadiusKm
}

// DestinationResult is one row of the ranked comparison table.
// Recomputed fresh on every request, never persisted across requests.
type DestinationResult struct {
	DestinationName     string              `json:"destination_name"`
	Operator            string              `json:"operator,omitempty"`
	Category            DestinationCategory `json:"category"`
	DistanceKm          float64             `json:"distance_km"`
	FreightCostPerTon   float64             `json:"freight_cost_per_ton"`
	GrossValue          float64             `json:"gross_value"`
	PercentageDeduction float64             `json:"percentage_deduction"`
	FixedDeduction      float64             `json:"fixed_deduction"`
	NetTotal            float64             `json:"net_total"`
	NetPerTon           float64             `json:"net_per_ton"`
}

// FleetPlan is the truck logistics derived from the chosen destination.
type FleetPlan struct {
	Trucks             int     `json:"trucks"`
	TruckCapacityTons  float64 `json:"truck_capacity_tons"`
	FreightOutlayLocal float64 `json:"freight_outlay_local"` // ARS, whole operation
}

// RouteAdvisory carries road and unloading conditions for a destination.
type RouteAdvisory struct {
	Destination string `json:"destination"`
	Status      string `json:"status"` // "fluid" | "congested" | "no_reports"
	Note        string `json:"note,omitempty"`
}

// Evaluation is the persisted record of one ranking request.
type Evaluation struct {
	ID              string     `json:"id"`
	GrainKind       string     `json:"grain_kind"`
	Tonnage         float64    `json:"tonnage"`
	Origin          Coordinate `json:"origin"`
	BestDestination string     `json:"best_destination"`
	NetTotal        float64    `json:"net_total"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EvaluationStats aggregates persisted evaluations.
type EvaluationStats struct {
	Total           int            `json:"total"`
	ByGrain         map[string]int `json:"by_grain"`
	AvgNetTotal     float64        `json:"avg_net_total"`
	LastEvaluatedAt time.Time      `json:"last_evaluated_at"`
}

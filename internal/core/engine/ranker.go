package engine

import (
	"sort"

	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/pkg/geodesic"
)

// Rank evaluates every destination against a shipment request and returns
// the comparison table sorted by net total descending, destination name
// ascending on ties. Ports are always eligible; collection points only
// within the request radius.
//
// The computation is pure and request-scoped: the destination slice is
// read-only and may be shared across concurrent calls.
func Rank(req domain.ShipmentRequest, destinations []domain.Destination, market domain.MarketSnapshot) ([]domain.DestinationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if market.ReferenceRate <= 0 {
		return nil, domain.ErrInvalidRate
	}
	basePrice, err := market.BasePrice(req.GrainKind)
	if err != nil {
		return nil, err
	}

	radiusKm := req.EffectiveRadiusKm()

	results := make([]domain.DestinationResult, 0, len(destinations))
	for _, dest := range destinations {
		distanceKm := geodesic.DistanceKm(
			req.Origin.Lat, req.Origin.Lon,
			dest.Location.Lat, dest.Location.Lon,
		)
		if dest.Category == domain.CategoryCollectionPoint && distanceKm > radiusKm {
			continue
		}

		freight, err := FreightCostPerTon(distanceKm, req.FreightTariffPerKmLocal, market.ReferenceRate)
		if err != nil {
			return nil, err
		}

		b := Profitability(basePrice+dest.PriceDifferential, freight, req.Tonnage, req.Expenses)

		results = append(results, domain.DestinationResult{
			DestinationName:     dest.Name,
			Operator:            dest.Operator,
			Category:            dest.Category,
			DistanceKm:          distanceKm,
			FreightCostPerTon:   freight,
			GrossValue:          b.GrossValue,
			PercentageDeduction: b.PercentageDeduction,
			FixedDeduction:      b.FixedDeduction,
			NetTotal:            b.NetTotal,
			NetPerTon:           b.NetPerTon,
		})
	}

	if len(results) == 0 {
		return nil, domain.ErrNoEligibleDestinations
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].NetTotal != results[j].NetTotal {
			return results[i].NetTotal > results[j].NetTotal
		}
		return results[i].DestinationName < results[j].DestinationName
	})

	return results, nil
}

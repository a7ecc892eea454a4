// Package engine implements the destination profitability engine: freight
// cost conversion, deduction arithmetic, and destination ranking. It is
// stateless and performs no I/O; registries, market snapshots and expense
// configurations are passed in as plain data.
package engine

import "github.com/agroruta/agroruta/internal/core/domain"

// FreightCostPerTon converts a per-kilometer local-currency tariff into a
// freight cost per ton in the reference currency:
//
//	(distanceKm * tariffPerKmLocal) / referenceRate
//
// The tariff must already be normalized per ton. Historical data mixed
// truck-level and ton-level per-km figures; the single convention here is
// that truck-level tariffs are divided by truck capacity before this call
// (see PerTruckTariffPerTon).
func FreightCostPerTon(distanceKm, tariffPerKmLocal, referenceRate float64) (float64, error) {
	if referenceRate <= 0 {
		return 0, domain.ErrInvalidRate
	}
	if tariffPerKmLocal < 0 {
		return 0, domain.ErrInvalidTariff
	}
	return distanceKm * tariffPerKmLocal / referenceRate, nil
}

// PerTruckTariffPerTon normalizes a whole-truck per-km tariff to a per-ton
// per-km tariff. This is the only supported conversion path for truck-level
// freight figures.
func PerTruckTariffPerTon(tariffPerKmLocal, truckCapacityTons float64) float64 {
	if truckCapacityTons <= 0 {
		return 0
	}
	return tariffPerKmLocal / truckCapacityTons
}

package domain

import "errors"

var (
	// ErrInvalidCoordinate is returned when a latitude/longitude is outside
	// the valid WGS-84 range.
	ErrInvalidCoordinate = errors.New("agroruta: latitude/longitude out of range")

	// ErrInvalidRate is returned when the reference exchange rate is not
	// strictly positive.
	ErrInvalidRate = errors.New("agroruta: reference rate must be positive")

	// ErrInvalidTonnage is returned when a request carries a non-positive
	// tonnage.
	ErrInvalidTonnage = errors.New("agroruta: tonnage must be positive")

	// ErrInvalidTariff is returned when the freight tariff is negative.
	ErrInvalidTariff = errors.New("agroruta: freight tariff must not be negative")

	// ErrUnknownGrain is returned when the market board has no price for the
	// requested grain kind.
	ErrUnknownGrain = errors.New("agroruta: no board price for grain kind")

	// ErrNoEligibleDestinations is returned when radius filtering leaves no
	// candidate at all. Callers should present it as "widen your search",
	// not as a failure.
	ErrNoEligibleDestinations = errors.New("agroruta: no eligible destinations")
)

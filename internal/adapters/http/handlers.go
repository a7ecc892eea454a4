package http

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// mapDomainError converts engine sentinel errors into HTTP responses.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidTonnage),
		errors.Is(err, domain.ErrInvalidTariff),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrUnknownGrain):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNoEligibleDestinations):
		return errNotFound(c, "no eligible destinations within the requested radius")
	default:
		return errInternal(c, err.Error())
	}
}

// ListDestinationsHandler returns all known destinations, optionally filtered
// by category, with offset/limit pagination.
func ListDestinationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := deps.Registry.AllDestinations(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		if category := c.Query("category"); category != "" {
			if category != string(domain.CategoryPort) && category != string(domain.CategoryCollectionPoint) {
				return errBadRequest(c, "category must be port or collection_point")
			}
			filtered := all[:0:0]
			for _, d := range all {
				if string(d.Category) == category {
					filtered = append(filtered, d)
				}
			}
			all = filtered
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(all)
		if offset >= total {
			all = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			all = all[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: all, Pagination: pg})
	}
}

// GetDestinationHandler resolves a single destination by exact name.
func GetDestinationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil || name == "" {
			return errBadRequest(c, "invalid destination name")
		}

		d, err := deps.Registry.DestinationByName(c.Context(), name)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if d == nil {
			return errNotFound(c, "unknown destination: "+name)
		}
		return c.JSON(d)
	}
}

// ListPortsHandler returns the static export-terminal set.
func ListPortsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(deps.Registry.Ports())
	}
}

// MarketBoardHandler returns the current market snapshot, falling back to
// built-in constants when no live board is available.
func MarketBoardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshot := deps.Market.Snapshot(c.Context())
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(snapshot)
	}
}

// EvaluateHandler ranks every eligible destination for the posted shipment.
func EvaluateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ShipmentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		outcome, err := deps.Evaluations.Evaluate(c.Context(), req)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(outcome)
	}
}

// EvaluationStatsHandler aggregates persisted evaluations.
func EvaluationStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Evaluations.Stats(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// RouteSheetHandler renders driver instructions for the winning destination
// as a plain-text download.
func RouteSheetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := domain.ShipmentRequest{
			GrainKind: c.Query("grain"),
			Tonnage:   c.QueryFloat("tonnage", 0),
			Origin: domain.Coordinate{
				Lat: c.QueryFloat("lat", 0),
				Lon: c.QueryFloat("lon", 0),
			},
			FreightTariffPerKmLocal: c.QueryFloat("tariff", 0),
			RadiusKm:                c.QueryFloat("radius", 0),
		}
		if req.GrainKind == "" {
			return errBadRequest(c, "grain query parameter is required")
		}

		sheet, err := deps.Evaluations.RouteSheet(c.Context(), req)
		if err != nil {
			return mapDomainError(c, err)
		}

		c.Set("Content-Type", "text/plain; charset=utf-8")
		c.Set("Content-Disposition", `attachment; filename="hoja_de_ruta.txt"`)
		return c.SendString(sheet)
	}
}

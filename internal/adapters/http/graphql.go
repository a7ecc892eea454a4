package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	destinationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Destination",
		Fields: graphql.Fields{
			"name":               &graphql.Field{Type: graphql.String},
			"operator":           &graphql.Field{Type: graphql.String},
			"location":           &graphql.Field{Type: geoPointType},
			"category":           &graphql.Field{Type: graphql.String},
			"price_differential": &graphql.Field{Type: graphql.Float},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DestinationResult",
		Fields: graphql.Fields{
			"destination_name":     &graphql.Field{Type: graphql.String},
			"operator":             &graphql.Field{Type: graphql.String},
			"category":             &graphql.Field{Type: graphql.String},
			"distance_km":          &graphql.Field{Type: graphql.Float},
			"freight_cost_per_ton": &graphql.Field{Type: graphql.Float},
			"gross_value":          &graphql.Field{Type: graphql.Float},
			"percentage_deduction": &graphql.Field{Type: graphql.Float},
			"fixed_deduction":      &graphql.Field{Type: graphql.Float},
			"net_total":            &graphql.Field{Type: graphql.Float},
			"net_per_ton":          &graphql.Field{Type: graphql.Float},
		},
	})

	boardEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoardEntry",
		Fields: graphql.Fields{
			"grain_kind":    &graphql.Field{Type: graphql.String},
			"price_per_ton": &graphql.Field{Type: graphql.Float},
		},
	})

	boardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarketBoard",
		Fields: graphql.Fields{
			"reference_rate": &graphql.Field{Type: graphql.Float},
			"fallback":       &graphql.Field{Type: graphql.Boolean},
			"prices":         &graphql.Field{Type: graphql.NewList(boardEntryType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"destinations": &graphql.Field{
				Type:        graphql.NewList(destinationType),
				Description: "List all known destinations",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					all, err := deps.Registry.AllDestinations(p.Context)
					if err != nil {
						return nil, err
					}
					category := p.Args["category"].(string)
					if category == "" {
						return all, nil
					}
					var filtered []domain.Destination
					for _, d := range all {
						if string(d.Category) == category {
							filtered = append(filtered, d)
						}
					}
					return filtered, nil
				},
			},
			"board": &graphql.Field{
				Type:        boardType,
				Description: "Current price board and reference rate",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snapshot := deps.Market.Snapshot(p.Context)
					prices := make([]map[string]interface{}, 0, len(snapshot.BasePricePerTon))
					for grain, price := range snapshot.BasePricePerTon {
						prices = append(prices, map[string]interface{}{
							"grain_kind":    grain,
							"price_per_ton": price,
						})
					}
					return map[string]interface{}{
						"reference_rate": snapshot.ReferenceRate,
						"fallback":       snapshot.Fallback,
						"prices":         prices,
					}, nil
				},
			},
			"evaluate": &graphql.Field{
				Type:        graphql.NewList(resultType),
				Description: "Rank destinations for a shipment",
				Args: graphql.FieldConfigArgument{
					"grain":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"tonnage": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"tariff":  &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 45.0},
					"radius":  &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := domain.ShipmentRequest{
						GrainKind: p.Args["grain"].(string),
						Tonnage:   p.Args["tonnage"].(float64),
						Origin: domain.Coordinate{
							Lat: p.Args["lat"].(float64),
							Lon: p.Args["lon"].(float64),
						},
						FreightTariffPerKmLocal: p.Args["tariff"].(float64),
						RadiusKm:                p.Args["radius"].(float64),
					}
					outcome, err := deps.Evaluations.Evaluate(p.Context, req)
					if err != nil {
						return nil, err
					}
					return outcome.Results, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}

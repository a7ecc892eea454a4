package http

import (
	"github.com/nats-io/nats.go"

	"github.com/agroruta/agroruta/internal/adapters/postgres"
	"github.com/agroruta/agroruta/internal/adapters/valkey"
	"github.com/agroruta/agroruta/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Registry    *usecases.RegistryService
	Market      *usecases.MarketService
	Evaluations *usecases.EvaluationService
	Fleet       *usecases.FleetService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}

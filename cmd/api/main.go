package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/agroruta/agroruta/internal/adapters/http"
	natsadapter "github.com/agroruta/agroruta/internal/adapters/nats"
	"github.com/agroruta/agroruta/internal/adapters/postgres"
	"github.com/agroruta/agroruta/internal/adapters/valkey"
	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/core/usecases"
	"github.com/agroruta/agroruta/internal/pkg/config"
	"github.com/agroruta/agroruta/internal/pkg/logging"
	"github.com/agroruta/agroruta/internal/pkg/metrics"
	"github.com/agroruta/agroruta/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("agroruta-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	destinationRepo := postgres.NewDestinationRepo(db)
	marketRepo := postgres.NewMarketRepo(db)
	evaluationRepo := postgres.NewEvaluationRepo(db)

	// Use cases
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	registrySvc := usecases.NewRegistryService(nil, destinationRepo, cacheSvc)
	marketSvc := usecases.NewMarketService(marketRepo, cacheSvc, cfg.Engine.FallbackReferenceRate)
	fleetSvc := usecases.NewFleetService(cfg.Engine.TruckCapacityTons)

	var pub ports.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	evaluationSvc := usecases.NewEvaluationService(registrySvc, marketSvc, fleetSvc, evaluationRepo, pub,
		usecases.RequestDefaults{
			RadiusKm:    cfg.Engine.DefaultRadiusKm,
			TariffPerKm: cfg.Engine.DefaultTariffPerKm,
		})

	// Board updates from the sync worker invalidate the cached snapshot
	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer subscriber.Close()
		if err := subscriber.SubscribeBoardUpdates(ctx, func(ctx context.Context, _ *domain.MarketSnapshot) error {
			marketSvc.Invalidate(ctx)
			return nil
		}); err != nil {
			slog.Warn("board update subscription failed", "error", err)
		}
	}

	deps := &http.Dependencies{
		Registry:    registrySvc,
		Market:      marketSvc,
		Evaluations: evaluationSvc,
		Fleet:       fleetSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "AgroRuta API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.agroruta.com.ar",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Pool gauges for Grafana
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

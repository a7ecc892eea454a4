package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/agroruta/agroruta/internal/adapters/nats"
	"github.com/agroruta/agroruta/internal/adapters/postgres"
	"github.com/agroruta/agroruta/internal/adapters/valkey"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/core/usecases"
	"github.com/agroruta/agroruta/internal/pkg/config"
	"github.com/agroruta/agroruta/internal/pkg/logging"
	"github.com/agroruta/agroruta/internal/workflows"
)

func main() {
	cfg, err := config.Load("agroruta-boardsync")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	marketRepo := postgres.NewMarketRepo(db)

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err == nil {
		defer cache.Close()
		cacheSvc = cache
	} else {
		slog.Warn("valkey unavailable", "error", err)
	}

	var pub ports.EventPublisher
	if publisher, err := natsadapter.NewPublisher(cfg.NATS.URL); err == nil {
		defer publisher.Close()
		pub = publisher
	} else {
		slog.Warn("nats unavailable", "error", err)
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.BoardRefreshWorkflow)
	w.RegisterActivity(&workflows.BoardActivities{
		Market:    marketRepo,
		MarketSvc: usecases.NewMarketService(marketRepo, cacheSvc, cfg.Engine.FallbackReferenceRate),
		Registry:  usecases.NewRegistryService(nil, postgres.NewDestinationRepo(db), cacheSvc),
		Publisher: pub,
	})

	slog.Info("boardsync worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

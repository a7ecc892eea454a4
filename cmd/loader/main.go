package main

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/agroruta/agroruta/internal/adapters/postgres"
	"github.com/agroruta/agroruta/internal/adapters/valkey"
	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/ports"
	"github.com/agroruta/agroruta/internal/core/usecases"
	"github.com/agroruta/agroruta/internal/pkg/config"
	"github.com/agroruta/agroruta/internal/pkg/logging"
	"github.com/agroruta/agroruta/internal/pkg/metrics"
)

// defaultDifferential is applied when a row omits the price differential
// column (USD/t below board price, the usual quote for local elevators).
const defaultDifferential = -6.0

func main() {
	cfg, err := config.Load("agroruta-loader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "text")

	csvPath := "collection_points.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	records, err := readRecords(csvPath)
	if err != nil {
		log.Fatalf("read %s: %v", csvPath, err)
	}

	points, dropped := usecases.BuildCollectionPoints(records)
	metrics.RegistryRowsLoaded.Add(float64(len(points)))
	metrics.RegistryRowsDropped.Add(float64(dropped))
	if dropped > 0 {
		slog.Warn("malformed rows dropped", "dropped", dropped)
	}
	if len(points) == 0 {
		log.Fatalf("no valid rows in %s", csvPath)
	}

	repo := postgres.NewDestinationRepo(db)
	if err := repo.UpsertBatch(ctx, points); err != nil {
		log.Fatalf("upsert: %v", err)
	}

	// Drop the cached destination list so the API sees the new registry
	if cache, err := valkey.New(cfg.Valkey.Addr); err == nil {
		defer cache.Close()
		var cacheSvc ports.CacheService = cache
		usecases.NewRegistryService(nil, repo, cacheSvc).Invalidate(ctx)
	} else {
		slog.Warn("valkey unavailable, cache not invalidated", "error", err)
	}

	slog.Info("registry loaded", "file", csvPath, "points", len(points), "dropped", dropped)
}

// readRecords parses the collection-point CSV. Headers are matched
// case-insensitively after trimming; expected columns are name, lat, lon,
// and optionally differential. Extra columns are ignored.
func readRecords(path string) ([]domain.CollectionPointRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var records []domain.CollectionPointRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rec := domain.CollectionPointRecord{
			Name:         field(row, cols, "name"),
			Differential: defaultDifferential,
		}
		rec.Lat, _ = strconv.ParseFloat(field(row, cols, "lat"), 64)
		rec.Lon, _ = strconv.ParseFloat(field(row, cols, "lon"), 64)
		if raw := field(row, cols, "differential"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Differential = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

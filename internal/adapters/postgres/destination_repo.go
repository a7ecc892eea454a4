package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// DestinationRepo implements ports.DestinationRepository with pgx.
// Only collection points are stored; export ports are static configuration.
type DestinationRepo struct {
	db *DB
}

// NewDestinationRepo creates a new DestinationRepo.
func NewDestinationRepo(db *DB) *DestinationRepo {
	return &DestinationRepo{db: db}
}

// Upsert inserts or updates a single destination keyed by name.
func (r *DestinationRepo) Upsert(ctx context.Context, d *domain.Destination) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO destinations (name, operator, lat, lon, category, price_differential)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET operator = EXCLUDED.operator, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
		    category = EXCLUDED.category,
		    price_differential = EXCLUDED.price_differential,
		    updated_at = now()
	`, d.Name, d.Operator, d.Location.Lat, d.Location.Lon, string(d.Category), d.PriceDifferential)
	return err
}

// UpsertBatch inserts many destinations using pgx.Batch.
func (r *DestinationRepo) UpsertBatch(ctx context.Context, ds []domain.Destination) error {
	batch := &pgx.Batch{}
	for _, d := range ds {
		batch.Queue(`
			INSERT INTO destinations (name, operator, lat, lon, category, price_differential)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE
			SET operator = EXCLUDED.operator, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			    category = EXCLUDED.category,
			    price_differential = EXCLUDED.price_differential,
			    updated_at = now()
		`, d.Name, d.Operator, d.Location.Lat, d.Location.Lon, string(d.Category), d.PriceDifferential)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ds {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// ListCollectionPoints returns every stored collection point ordered by name.
func (r *DestinationRepo) ListCollectionPoints(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, COALESCE(operator, ''), lat, lon, category, price_differential
		FROM destinations
		WHERE category = 'collection_point'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.Destination
	for rows.Next() {
		var d domain.Destination
		var category string
		if err := rows.Scan(
			&d.Name, &d.Operator, &d.Location.Lat, &d.Location.Lon,
			&category, &d.PriceDifferential,
		); err != nil {
			return nil, err
		}
		d.Category = domain.DestinationCategory(category)
		points = append(points, d)
	}
	return points, rows.Err()
}

// GetByName returns one destination, or nil when no row matches.
func (r *DestinationRepo) GetByName(ctx context.Context, name string) (*domain.Destination, error) {
	var d domain.Destination
	var category string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT name, COALESCE(operator, ''), lat, lon, category, price_differential
		FROM destinations WHERE name = $1
	`, name).Scan(
		&d.Name, &d.Operator, &d.Location.Lat, &d.Location.Lon,
		&category, &d.PriceDifferential,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Category = domain.DestinationCategory(category)
	return &d, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// MarketRepo implements ports.MarketRepository with pgx. The board and FX
// tables are append-only; readers always take the latest row per key.
type MarketRepo struct {
	db *DB
}

// NewMarketRepo creates a new MarketRepo.
func NewMarketRepo(db *DB) *MarketRepo {
	return &MarketRepo{db: db}
}

// LatestBoard returns the most recent price per grain kind (USD/t).
func (r *MarketRepo) LatestBoard(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (grain_kind) grain_kind, price_per_ton
		FROM price_board
		ORDER BY grain_kind, published_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := make(map[string]float64)
	for rows.Next() {
		var grain string
		var price float64
		if err := rows.Scan(&grain, &price); err != nil {
			return nil, err
		}
		board[grain] = price
	}
	return board, rows.Err()
}

// LatestRate returns the most recent reference rate (ARS per USD).
// Zero with no error means no rate has ever been stored.
func (r *MarketRepo) LatestRate(ctx context.Context) (float64, error) {
	var rate float64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT rate FROM fx_rates ORDER BY published_at DESC LIMIT 1
	`).Scan(&rate)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rate, nil
}

// UpsertBoard appends a new board row per grain kind.
func (r *MarketRepo) UpsertBoard(ctx context.Context, prices map[string]float64) error {
	now := time.Now()
	batch := &pgx.Batch{}
	for grain, price := range prices {
		batch.Queue(`
			INSERT INTO price_board (grain_kind, price_per_ton, published_at)
			VALUES ($1, $2, $3)
		`, grain, price, now)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range prices {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// UpsertRate appends a new reference rate row.
func (r *MarketRepo) UpsertRate(ctx context.Context, rate float64) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO fx_rates (rate, published_at) VALUES ($1, $2)
	`, rate, time.Now())
	return err
}

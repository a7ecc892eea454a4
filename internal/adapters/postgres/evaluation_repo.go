package postgres

import (
	"context"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// EvaluationRepo implements ports.EvaluationRepository with pgx.
type EvaluationRepo struct {
	db *DB
}

// NewEvaluationRepo creates a new EvaluationRepo.
func NewEvaluationRepo(db *DB) *EvaluationRepo {
	return &EvaluationRepo{db: db}
}

// Insert stores one completed evaluation.
func (r *EvaluationRepo) Insert(ctx context.Context, e *domain.Evaluation) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO evaluations (grain_kind, tonnage, origin_lat, origin_lon, best_destination, net_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, e.GrainKind, e.Tonnage, e.Origin.Lat, e.Origin.Lon,
		e.BestDestination, e.NetTotal, e.CreatedAt).Scan(&e.ID)
}

// Stats aggregates the persisted evaluations in a single round trip.
func (r *EvaluationRepo) Stats(ctx context.Context) (*domain.EvaluationStats, error) {
	stats := &domain.EvaluationStats{ByGrain: make(map[string]int)}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(net_total), 0), COALESCE(MAX(created_at), 'epoch'::timestamptz)
		FROM evaluations
	`).Scan(&stats.Total, &stats.AvgNetTotal, &stats.LastEvaluatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT grain_kind, COUNT(*) FROM evaluations GROUP BY grain_kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var grain string
		var count int
		if err := rows.Scan(&grain, &count); err != nil {
			return nil, err
		}
		stats.ByGrain[grain] = count
	}
	return stats, rows.Err()
}

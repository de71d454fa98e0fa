// Package postgres stores step events in Postgres and answers window queries over them.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sedentary/internal/domain"
)

//go:embed schema.sql
var schema string

// Migrate creates the step tables when they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply step schema: %w", err)
	}
	return nil
}

// StepRepository provides Postgres-backed persistence for step events of one user.
type StepRepository struct {
	pool   *pgxpool.Pool
	userID string
}

// NewStepRepository constructs a StepRepository. userID scopes window queries.
func NewStepRepository(pool *pgxpool.Pool, userID string) *StepRepository {
	return &StepRepository{pool: pool, userID: userID}
}

// Record stores a single step event.
func (r *StepRepository) Record(ctx context.Context, event domain.StepEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO step_events (user_id, recorded_at, step_count) VALUES ($1, $2, $3)`,
		event.UserID, event.Timestamp.UTC(), int64(event.Count),
	)
	if err != nil {
		return fmt.Errorf("insert step event: %w", err)
	}
	return nil
}

// QueryCumulativeSteps sums steps recorded in [start, end).
func (r *StepRepository) QueryCumulativeSteps(ctx context.Context, start, end time.Time) (uint32, error) {
	const query = `SELECT COALESCE(SUM(step_count), 0)::BIGINT FROM step_events
        WHERE user_id=$1 AND recorded_at >= $2 AND recorded_at < $3`

	var total int64
	if err := r.pool.QueryRow(ctx, query, r.userID, start.UTC(), end.UTC()).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: sum steps: %w", domain.ErrDataUnavailable, err)
	}
	return clampTotal(total), nil
}

func clampTotal(total int64) uint32 {
	switch {
	case total < 0:
		return 0
	case total > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(total)
}

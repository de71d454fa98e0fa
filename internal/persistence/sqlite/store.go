// Package sqlite keeps step events in a local SQLite file for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"example.com/sedentary/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS step_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id     TEXT    NOT NULL,
    recorded_ms INTEGER NOT NULL,
    step_count  INTEGER NOT NULL CHECK (step_count >= 0)
);
CREATE INDEX IF NOT EXISTS step_events_user_recorded_idx ON step_events (user_id, recorded_ms);
`

// Store is a SQLite-backed step store scoped to one user for queries.
type Store struct {
	db     *sql.DB
	userID string
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path, userID string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the consumer and the API.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return &Store{db: db, userID: userID}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a single step event.
func (s *Store) Record(ctx context.Context, event domain.StepEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_events (user_id, recorded_ms, step_count) VALUES (?, ?, ?)`,
		event.UserID, event.Timestamp.UnixMilli(), int64(event.Count),
	)
	if err != nil {
		return fmt.Errorf("insert step event: %w", err)
	}
	return nil
}

// QueryCumulativeSteps sums steps recorded in [start, end).
func (s *Store) QueryCumulativeSteps(ctx context.Context, start, end time.Time) (uint32, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(step_count), 0) FROM step_events WHERE user_id = ? AND recorded_ms >= ? AND recorded_ms < ?`,
		s.userID, start.UnixMilli(), end.UnixMilli(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: sum steps: %w", domain.ErrDataUnavailable, err)
	}
	if total > math.MaxUint32 {
		return math.MaxUint32, nil
	}
	return uint32(total), nil
}

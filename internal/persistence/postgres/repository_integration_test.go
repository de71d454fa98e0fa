//go:build integration

package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/sedentary/internal/domain"
)

func TestStepRepositorySumsWindowForUser(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	userID := uuid.NewString()
	repo := NewStepRepository(pool, userID)
	base := time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

	for _, e := range []domain.StepEvent{
		{UserID: userID, Timestamp: base.Add(-time.Minute), Count: 1000},
		{UserID: userID, Timestamp: base, Count: 120},
		{UserID: userID, Timestamp: base.Add(30 * time.Minute), Count: 80},
		{UserID: userID, Timestamp: base.Add(time.Hour), Count: 5000},
		{UserID: uuid.NewString(), Timestamp: base.Add(10 * time.Minute), Count: 999},
	} {
		require.NoError(t, repo.Record(ctx, e))
	}

	total, err := repo.QueryCumulativeSteps(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, uint32(200), total, "window is half-open and scoped to the user")

	again, err := repo.QueryCumulativeSteps(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, total, again)

	empty, err := repo.QueryCumulativeSteps(ctx, base.Add(2*time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Zero(t, empty)
}

func TestStepRepositoryStoresFullUint32Counts(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	require.NoError(t, Migrate(ctx, pool), "migration is repeatable")

	userID := uuid.NewString()
	repo := NewStepRepository(pool, userID)
	base := time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, domain.StepEvent{UserID: userID, Timestamp: base, Count: math.MaxUint32}))
	require.NoError(t, repo.Record(ctx, domain.StepEvent{UserID: userID, Timestamp: base.Add(time.Minute), Count: 10}))

	total, err := repo.QueryCumulativeSteps(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), total, "sums above uint32 are clamped")
}

func TestStepRepositoryReportsUnavailableOnClosedPool(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo := NewStepRepository(pool, "user-1")
	pool.Close()

	_, err := repo.QueryCumulativeSteps(ctx, time.Now().Add(-time.Hour), time.Now())
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("sedentary"),
		postgrescontainer.WithUsername("monitor"),
		postgrescontainer.WithPassword("monitor"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

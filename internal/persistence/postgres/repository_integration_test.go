//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/gymtrack/internal/domain"
)

func startDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("gymtrack"),
		postgrescontainer.WithUsername("gymtrack"),
		postgrescontainer.WithPassword("gymtrack"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestCompleteSessionFlow(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)
	svc := domain.NewService(repo)

	userID := uuid.NewString()
	session, err := svc.StartSession(ctx, domain.StartSessionInput{UserID: userID, Username: "integration"})
	require.NoError(t, err)

	_, err = svc.LogSet(ctx, userID, domain.SetLogInput{
		SessionID:  session.ID,
		ExerciseID: "ex-bench-press",
		SetNumber:  1,
		WeightKg:   100,
		Reps:       5,
	})
	require.NoError(t, err)

	outcome, err := svc.CompleteSession(ctx, userID, session.ID)
	require.NoError(t, err)
	require.Equal(t, 30, outcome.XPGained) // 20 base + 5 volume + 5 variety
	require.Equal(t, 1, outcome.CurrentStreak)

	// Completing again must fail without touching the progression row.
	_, err = svc.CompleteSession(ctx, userID, session.ID)
	require.ErrorIs(t, err, domain.ErrSessionFinished)

	user, err := repo.User(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 30, user.XP)

	// The completing transaction staged the event in the outbox.
	var eventCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='session.completed'`,
		session.ID).Scan(&eventCount))
	require.Equal(t, 1, eventCount)
}

func TestAchievementUnlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)
	svc := domain.NewService(repo)

	userID := uuid.NewString()
	session, err := svc.StartSession(ctx, domain.StartSessionInput{UserID: userID, Username: "integration"})
	require.NoError(t, err)
	_, err = svc.CompleteSession(ctx, userID, session.ID)
	require.NoError(t, err)

	unlocked, err := svc.EvaluateAchievements(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, unlocked) // first-session achievement

	again, err := svc.EvaluateAchievements(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, again)

	count, err := repo.UnlockCount(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, len(unlocked), count)
}

func TestSessionPagination(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	require.NoError(t, repo.EnsureUser(ctx, userID, "integration"))

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateSession(ctx, domain.WorkoutSession{
			ID:        uuid.NewString(),
			UserID:    userID,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	first, cursor, err := repo.SessionsByUser(ctx, userID, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, cursor)

	rest, _, err := repo.SessionsByUser(ctx, userID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)

	// Newest first, no overlap between pages.
	require.True(t, first[0].StartedAt.After(rest[len(rest)-1].StartedAt))
	seen := map[string]bool{}
	for _, s := range append(first, rest...) {
		require.False(t, seen[s.ID])
		seen[s.ID] = true
	}
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
		"../../../db/postgres/migrations/0002_seed.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
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

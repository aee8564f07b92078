// Package dbtest gives tests an isolated postgres schema. Tests using it are
// skipped unless DATABASE_URL points at a reachable server.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/cinelist/pkg/database"
)

// New returns a pool whose search_path is a fresh, empty schema. The schema
// is dropped when the test ends.
func New(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := pgx.Connect(ctx, url)
	require.NoError(t, err)

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	cfg.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(ctx)
	})
	return pool
}

// Migrated is New followed by database.Migrate.
func Migrated(t testing.TB) *pgxpool.Pool {
	t.Helper()
	pool := New(t)
	require.NoError(t, database.Migrate(context.Background(), pool))
	return pool
}

// SeedUser inserts a verified user and returns its id.
func SeedUser(t testing.TB, pool *pgxpool.Pool, email, phone string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, phone, is_email_verified)
		VALUES ($1, 'hash', $2, true)
		RETURNING id`, email, phone).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedMovie inserts a platform (reused by name) and a movie on it.
func SeedMovie(t testing.TB, pool *pgxpool.Pool, platform, title string) int64 {
	t.Helper()
	ctx := context.Background()

	var platformID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO platforms (name, url) VALUES ($1, 'https://' || lower($1) || '.example.com')
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, platform).Scan(&platformID)
	require.NoError(t, err)

	var id int64
	err = pool.QueryRow(ctx, `
		INSERT INTO movies (title, platform_id) VALUES ($1, $2) RETURNING id`, title, platformID).Scan(&id)
	require.NoError(t, err)
	return id
}

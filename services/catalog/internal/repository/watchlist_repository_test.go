package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/database/dbtest"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

func countWatchlist(t *testing.T, repo *watchlistRepository, userID, movieID int64) int {
	t.Helper()
	var n int
	err := repo.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestWatchlistRepository_AddTwiceKeepsOneRow(t *testing.T) {
	pool := dbtest.Migrated(t)
	repo := NewWatchlistRepository(pool).(*watchlistRepository)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")
	movieID := dbtest.SeedMovie(t, pool, "Netflix", "The Matrix")

	added, err := repo.Add(ctx, userID, movieID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, userID, movieID)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, 1, countWatchlist(t, repo, userID, movieID))
}

func TestWatchlistRepository_ConcurrentAdds(t *testing.T) {
	pool := dbtest.Migrated(t)
	repo := NewWatchlistRepository(pool).(*watchlistRepository)

	userID := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")
	movieID := dbtest.SeedMovie(t, pool, "Netflix", "The Matrix")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := repo.Add(context.Background(), userID, movieID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if added {
				created++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, countWatchlist(t, repo, userID, movieID))
}

func TestWatchlistRepository_RemoveAndList(t *testing.T) {
	pool := dbtest.Migrated(t)
	repo := NewWatchlistRepository(pool)
	ctx := context.Background()

	alice := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")
	bob := dbtest.SeedUser(t, pool, "b@x.com", "9000000002")
	matrix := dbtest.SeedMovie(t, pool, "Netflix", "The Matrix")
	heat := dbtest.SeedMovie(t, pool, "Prime", "Heat")

	_, err := pool.Exec(ctx, `INSERT INTO reviews (movie_id, email, rating) VALUES ($1, 'r@x.com', 8), ($1, 'q@x.com', 9)`, heat)
	require.NoError(t, err)

	for _, id := range []int64{heat, matrix} {
		added, err := repo.Add(ctx, alice, id)
		require.NoError(t, err)
		require.True(t, added)
	}
	_, err = repo.Add(ctx, bob, matrix)
	require.NoError(t, err)

	items, err := repo.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, heat, items[0].MovieID)
	assert.Equal(t, "Prime", items[0].Platform)
	assert.InDelta(t, 8.5, items[0].Rating, 1e-9)
	assert.Equal(t, "The Matrix", items[1].Title)
	assert.Equal(t, domain.DefaultRating, items[1].Rating)

	removed, err := repo.Remove(ctx, alice, matrix)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, alice, matrix)
	require.NoError(t, err)
	assert.False(t, removed)

	items, err = repo.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = repo.List(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWatchlistRepository_AddDeletedMovieIsNotFound(t *testing.T) {
	pool := dbtest.Migrated(t)
	repo := NewWatchlistRepository(pool)

	userID := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")
	movieID := dbtest.SeedMovie(t, pool, "Netflix", "The Matrix")
	_, err := pool.Exec(context.Background(), `DELETE FROM movies WHERE id = $1`, movieID)
	require.NoError(t, err)

	added, err := repo.Add(context.Background(), userID, movieID)
	assert.False(t, added)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

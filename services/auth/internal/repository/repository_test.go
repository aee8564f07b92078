package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/database/dbtest"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
)

func key(c byte) string { return strings.Repeat(string(c), 40) }

func newUser(email, phone string) *domain.User {
	return &domain.User{
		Email:        email,
		PasswordHash: "argon",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Gender:       domain.GenderOthers,
		Phone:        phone,
	}
}

func TestTokenRepository_GetOrCreateReturnsSameKey(t *testing.T) {
	pool := dbtest.Migrated(t)
	tokens := NewTokenRepository(pool)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")

	first, err := tokens.GetOrCreate(ctx, userID, key('a'))
	require.NoError(t, err)
	assert.Equal(t, key('a'), first)

	second, err := tokens.GetOrCreate(ctx, userID, key('b'))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	deleted, err := tokens.DeleteByKey(ctx, first)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = tokens.DeleteByKey(ctx, first)
	require.NoError(t, err)
	assert.False(t, deleted)

	third, err := tokens.GetOrCreate(ctx, userID, key('c'))
	require.NoError(t, err)
	assert.Equal(t, key('c'), third)
}

func TestTokenRepository_ConcurrentLoginsConverge(t *testing.T) {
	pool := dbtest.Migrated(t)
	tokens := NewTokenRepository(pool)
	userID := dbtest.SeedUser(t, pool, "a@x.com", "9000000001")

	const workers = 8
	keys := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], errs[i] = tokens.GetOrCreate(context.Background(), userID, key(byte('a'+i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, keys[0], keys[i])
	}
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	pool := dbtest.Migrated(t)
	users := NewUserRepository(pool)
	tokens := NewTokenRepository(pool)
	ctx := context.Background()

	u, err := users.Create(ctx, newUser("a@x.com", "9000000001"))
	require.NoError(t, err)
	other := dbtest.SeedUser(t, pool, "b@x.com", "9000000002")
	movieID := dbtest.SeedMovie(t, pool, "Netflix", "The Matrix")

	_, err = tokens.GetOrCreate(ctx, u.ID, key('a'))
	require.NoError(t, err)
	_, err = tokens.GetOrCreate(ctx, other, key('b'))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO watchlist (user_id, movie_id) VALUES ($1, $3), ($2, $3)`, u.ID, other, movieID)
	require.NoError(t, err)

	keys, err := users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{key('a')}, keys)

	count := func(q string, args ...any) int {
		var n int
		require.NoError(t, pool.QueryRow(ctx, q, args...).Scan(&n))
		return n
	}
	assert.Zero(t, count(`SELECT count(*) FROM watchlist WHERE user_id = $1`, u.ID))
	assert.Zero(t, count(`SELECT count(*) FROM auth_tokens WHERE user_id = $1`, u.ID))
	assert.Equal(t, 1, count(`SELECT count(*) FROM watchlist WHERE user_id = $1`, other))
	assert.Equal(t, 1, count(`SELECT count(*) FROM auth_tokens WHERE user_id = $1`, other))

	found, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = users.Delete(ctx, u.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUserRepository_CreateAndOTP(t *testing.T) {
	pool := dbtest.Migrated(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	u, err := users.Create(ctx, newUser("a@x.com", "9000000001"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.False(t, u.IsEmailVerified)

	_, err = users.Create(ctx, newUser("a@x.com", "9000000002"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	_, err = users.Create(ctx, newUser("c@x.com", "9000000001"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	expires := time.Now().Add(5 * time.Minute)
	require.NoError(t, users.SetOTP(ctx, u.ID, "bcrypt-hash", expires))
	got, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got.OTPHash)
	assert.Equal(t, "bcrypt-hash", *got.OTPHash)

	require.NoError(t, users.MarkVerified(ctx, u.ID))
	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Nil(t, got.OTPHash)
	assert.Nil(t, got.OTPExpiresAt)
}

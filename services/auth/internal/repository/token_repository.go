package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository interface {
	// GetOrCreate stores candidate as the user's token unless one exists,
	// and returns whichever key is now on record.
	GetOrCreate(ctx context.Context, userID int64, candidate string) (string, error)
	// DeleteByKey reports whether a token was removed.
	DeleteByKey(ctx context.Context, key string) (bool, error)
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) GetOrCreate(ctx context.Context, userID int64, candidate string) (string, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
		INSERT INTO auth_tokens (key, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING key`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var key string
	err := r.pool.QueryRow(ctx, q, candidate, userID).Scan(&key)
	return key, err
}

func (r *tokenRepository) DeleteByKey(ctx context.Context, key string) (bool, error) {
	const q = `DELETE FROM auth_tokens WHERE key = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, key)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

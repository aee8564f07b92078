package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenLength is the length of an encoded bearer token.
const TokenLength = 40

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
}

// NewToken returns 20 random bytes as 40 lower-case hex characters.
func NewToken() (string, error) {
	b := make([]byte, TokenLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type TokenStore interface {
	// Lookup returns nil, nil when the token does not exist.
	Lookup(ctx context.Context, key string) (*Principal, error)
}

type pgTokenStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenStore(pool *pgxpool.Pool) TokenStore {
	return &pgTokenStore{pool: pool}
}

func (s *pgTokenStore) Lookup(ctx context.Context, key string) (*Principal, error) {
	const q = `
		SELECT u.id, u.email, u.is_staff
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p Principal
	err := s.pool.QueryRow(ctx, q, key).Scan(&p.UserID, &p.Email, &p.IsStaff)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

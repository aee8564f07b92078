package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "auth:token:"

// Resolver maps bearer tokens to principals, reading through a Redis cache.
// A nil redis client disables caching.
type Resolver struct {
	store TokenStore
	redis *redis.Client
	ttl   time.Duration
}

func NewResolver(store TokenStore, rdb *redis.Client, ttl time.Duration) *Resolver {
	return &Resolver{store: store, redis: rdb, ttl: ttl}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if len(token) != TokenLength {
		return nil, apperr.E(apperr.Unauthenticated, "invalid token")
	}

	if p := r.cached(ctx, token); p != nil {
		return p, nil
	}

	p, err := r.store.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if p == nil {
		return nil, apperr.E(apperr.Unauthenticated, "invalid token")
	}

	r.remember(ctx, token, p)
	return p, nil
}

// Invalidate drops the cached principal for token.
func (r *Resolver) Invalidate(ctx context.Context, token string) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Del(ctx, cacheKey(token)).Err()
}

func (r *Resolver) cached(ctx context.Context, token string) *Principal {
	if r.redis == nil {
		return nil
	}
	raw, err := r.redis.Get(ctx, cacheKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WarnContext(ctx, "Token cache read failed", "error", err)
		}
		return nil
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}

func (r *Resolver) remember(ctx context.Context, token string, p *Principal) {
	if r.redis == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, cacheKey(token), raw, r.ttl).Err(); err != nil {
		logger.WarnContext(ctx, "Token cache write failed", "error", err)
	}
}

// Tokens are hashed so raw credentials never sit in Redis.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cachePrefix + hex.EncodeToString(sum[:])
}

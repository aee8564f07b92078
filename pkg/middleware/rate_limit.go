package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/pkg/response"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Prefix   string
	Requests int
	Window   time.Duration
	KeyFunc  func(r *http.Request) []string // defaults to client IP
}

// RateLimiter is a fixed-window counter in Redis. It fails open when Redis is unavailable.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKey
	}
	if config.Prefix == "" {
		config.Prefix = "rl"
	}
	return &RateLimiter{redis: rdb, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.Allow(r.Context(), key)
				if err != nil {
					logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !allowed {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.Window.Seconds())))
					response.RateLimit(w, "Too many requests. Please try again later.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allow counts one hit for key and reports whether it is within the budget.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Fixed window: SET NX EX starts the window with its TTL, INCR keeps it.
	k := rl.redisKey(key)
	var incr *redis.IntCmd
	_, err := rl.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, rl.config.Window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return true, err
	}
	return incr.Val() <= int64(rl.config.Requests), nil
}

func (rl *RateLimiter) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%x", rl.config.Prefix, sum)
}

func ClientIPKey(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// maxKeyBody bounds how much of a request body is buffered for key lookup.
const maxKeyBody = 64 << 10

// ClientIPAndEmailKey limits by client IP and, when the JSON body carries
// one, by the normalized email so rotating addresses does not reset the
// budget for a single account.
func ClientIPAndEmailKey(r *http.Request) []string {
	keys := ClientIPKey(r)
	if email := bodyEmail(r); email != "" {
		keys = append(keys, "email:"+email)
	}
	return keys
}

// bodyEmail peeks at the "email" field and restores the body for the handler.
func bodyEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

// ClientIP extracts the client IP. Only the last X-Forwarded-For hop is
// trusted: it is the address the nearest proxy (the gateway) observed.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.LastIndex(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[idx+1:])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

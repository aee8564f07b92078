package middleware

import (
	"context"
	"net/http"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/pkg/response"
)

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Principal, error)
}

// RequireToken rejects requests without a valid bearer token and stores the
// principal on the request context.
func RequireToken(resolver TokenResolver) func(http.Handler) http.Handler {
	return requirePrincipal(resolver, false)
}

// RequireStaff is RequireToken plus a staff check.
func RequireStaff(resolver TokenResolver) func(http.Handler) http.Handler {
	return requirePrincipal(resolver, true)
}

func requirePrincipal(resolver TokenResolver, staff bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				response.FromError(w, r, err)
				return
			}

			if staff && !p.IsStaff {
				response.FromError(w, r, apperr.E(apperr.Forbidden, "Insufficient permissions"))
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			ctx = context.WithValue(ctx, logger.UserIDKey, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffForWrites lets safe methods through and requires a staff token otherwise.
func StaffForWrites(resolver TokenResolver) func(http.Handler) http.Handler {
	staff := RequireStaff(resolver)
	return func(next http.Handler) http.Handler {
		guarded := staff(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}

package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/pkg/response"
	"github.com/diagnosis/cinelist/services/gateway/internal/proxy"
	"github.com/go-chi/chi/v5"
)

// APIPrefix is stripped before requests reach a service.
const APIPrefix = "/v1"

type Handlers struct {
	authProxy    *proxy.ServiceProxy
	catalogProxy *proxy.ServiceProxy
}

func New(authProxy, catalogProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		authProxy:    authProxy,
		catalogProxy: catalogProxy,
	}
}

// Routes maps public /v1 paths onto the owning service.
func (h *Handlers) Routes(r chi.Router) {
	r.Route(APIPrefix, func(r chi.Router) {
		toAuth := h.forward(h.authProxy)
		r.Post("/register", toAuth)
		r.Post("/verify", toAuth)
		r.Post("/resend-otp", toAuth)
		r.Post("/login", toAuth)
		r.Post("/logout", toAuth)
		r.HandleFunc("/me", toAuth)
		r.HandleFunc("/admin/*", toAuth)

		toCatalog := h.forward(h.catalogProxy)
		r.HandleFunc("/movies", toCatalog)
		r.HandleFunc("/movies/*", toCatalog)
		r.HandleFunc("/platform", toCatalog)
		r.HandleFunc("/platform/*", toCatalog)
		r.HandleFunc("/reviews", toCatalog)
		r.HandleFunc("/reviews/*", toCatalog)
		r.Post("/add_to_watchlist/{id}", toCatalog)
		r.Get("/view_watchlist", toCatalog)
		r.Delete("/delete_watchlist/{id}", toCatalog)
	})
}

func (h *Handlers) forward(target *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, APIPrefix)
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		resp, err := target.ProxyRequest(r.Context(), r.Method, path, r.Body, proxy.ForwardHeaders(r))
		if err != nil {
			logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", target.Name(), "path", path)
			response.ServiceUnavailable(w, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		// The gateway sets its own request ID header.
		resp.Header.Del("X-Request-ID")
		proxy.CopyHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
		}
	}
}

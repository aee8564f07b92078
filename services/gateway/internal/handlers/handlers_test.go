package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/diagnosis/cinelist/pkg/middleware"
	"github.com/diagnosis/cinelist/pkg/response"
	"github.com/diagnosis/cinelist/services/gateway/internal/handlers"
	"github.com/diagnosis/cinelist/services/gateway/internal/proxy"
)

type seen struct {
	method, path, query, auth, body, requestID, clientIP string
}

// upstream records the last request and answers with its service name.
func upstream(t *testing.T, name string, last *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*last = seen{
			method:    r.Method,
			path:      r.URL.Path,
			query:     r.URL.RawQuery,
			auth:      r.Header.Get("Authorization"),
			body:      string(body),
			requestID: r.Header.Get("X-Request-ID"),
			clientIP:  mw.ClientIP(r),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", "upstream-id")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"service": name})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupGateway(authURL, catalogURL string) http.Handler {
	h := handlers.New(proxy.NewServiceProxy("auth", authURL), proxy.NewServiceProxy("catalog", catalogURL))
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	h.Routes(r)
	return r
}

func TestGateway_RoutesByPath(t *testing.T) {
	var authSeen, catalogSeen seen
	authSrv := upstream(t, "auth", &authSeen)
	catalogSrv := upstream(t, "catalog", &catalogSeen)
	gw := setupGateway(authSrv.URL, catalogSrv.URL)

	tests := []struct {
		method, path, service, upstreamPath string
	}{
		{http.MethodPost, "/v1/register", "auth", "/register"},
		{http.MethodPost, "/v1/login", "auth", "/login"},
		{http.MethodGet, "/v1/me", "auth", "/me"},
		{http.MethodDelete, "/v1/admin/users/3", "auth", "/admin/users/3"},
		{http.MethodGet, "/v1/movies", "catalog", "/movies"},
		{http.MethodGet, "/v1/movies/5/reviews", "catalog", "/movies/5/reviews"},
		{http.MethodPatch, "/v1/platform/2", "catalog", "/platform/2"},
		{http.MethodPost, "/v1/add_to_watchlist/5", "catalog", "/add_to_watchlist/5"},
		{http.MethodGet, "/v1/view_watchlist", "catalog", "/view_watchlist"},
		{http.MethodDelete, "/v1/delete_watchlist/5", "catalog", "/delete_watchlist/5"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			gw.ServeHTTP(rr, req)

			require.Equal(t, http.StatusCreated, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.service)

			got := authSeen
			if tt.service == "catalog" {
				got = catalogSeen
			}
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.upstreamPath, got.path)
		})
	}
}

func TestGateway_ForwardsHeadersBodyAndQuery(t *testing.T) {
	var authSeen, catalogSeen seen
	gw := setupGateway(upstream(t, "auth", &authSeen).URL, upstream(t, "catalog", &catalogSeen).URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/reviews", strings.NewReader(`{"movie_id":5,"rating":8}`))
	req.Header.Set("Authorization", "Token abc")
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	gw.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Token abc", catalogSeen.auth)
	assert.Equal(t, `{"movie_id":5,"rating":8}`, catalogSeen.body)
	assert.Equal(t, "req-123", catalogSeen.requestID)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/v1/movies?platform=1&search=matrix", nil)
	gw.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "platform=1&search=matrix", catalogSeen.query)
}

func TestGateway_ForwardsObservedClientIP(t *testing.T) {
	var authSeen, catalogSeen seen
	gw := setupGateway(upstream(t, "auth", &authSeen).URL, upstream(t, "catalog", &catalogSeen).URL)

	login := func(remoteAddr, forged string) string {
		req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(`{}`))
		req.RemoteAddr = remoteAddr
		if forged != "" {
			req.Header.Set("X-Forwarded-For", forged)
			req.Header.Set("X-Real-IP", forged)
		}
		gw.ServeHTTP(httptest.NewRecorder(), req)
		return authSeen.clientIP
	}

	assert.Equal(t, "203.0.113.1", login("203.0.113.1:4000", ""))
	assert.Equal(t, "198.51.100.7", login("198.51.100.7:4001", ""))
	assert.Equal(t, "198.51.100.7", login("198.51.100.7:4002", "6.6.6.6"))
	assert.Equal(t, "198.51.100.7", login("198.51.100.7:4003", "6.6.6.6, 7.7.7.7"))
}

func TestGateway_UpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	gw := setupGateway(down.URL, down.URL)

	rr := httptest.NewRecorder()
	gw.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, response.CodeUnavailable, body.Code)
}

func TestGateway_UnknownRoute(t *testing.T) {
	gw := setupGateway("http://127.0.0.1:1", "http://127.0.0.1:1")

	rr := httptest.NewRecorder()
	gw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/pkg/response"
	"github.com/diagnosis/cinelist/services/catalog/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	catalog   service.CatalogService
	watchlist service.WatchlistService
}

func New(catalog service.CatalogService, watchlist service.WatchlistService) *Handlers {
	return &Handlers{
		catalog:   catalog,
		watchlist: watchlist,
	}
}

// Routes mounts the catalog endpoints. staffWrites lets reads through and
// requires a staff token for anything else; requireToken accepts any valid token.
func (h *Handlers) Routes(r chi.Router, requireToken, staffWrites func(http.Handler) http.Handler) {
	r.Route("/movies", func(r chi.Router) {
		r.Use(staffWrites)
		r.Get("/", h.ListMovies)
		r.Post("/", h.CreateMovie)
		r.Get("/{id}", h.GetMovie)
		r.Put("/{id}", h.UpdateMovie)
		r.Patch("/{id}", h.PatchMovie)
		r.Delete("/{id}", h.DeleteMovie)
		r.Get("/{id}/reviews", h.ListReviews)
	})

	r.Route("/platform", func(r chi.Router) {
		r.Use(staffWrites)
		r.Get("/", h.ListPlatforms)
		r.Post("/", h.CreatePlatform)
		r.Get("/{id}", h.GetPlatform)
		r.Put("/{id}", h.UpdatePlatform)
		r.Patch("/{id}", h.PatchPlatform)
		r.Delete("/{id}", h.DeletePlatform)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireToken)

		r.Post("/reviews", h.CreateReview)
		r.Put("/reviews/{id}", h.UpdateReview)
		r.Patch("/reviews/{id}", h.PatchReview)
		r.Delete("/reviews/{id}", h.DeleteReview)

		r.Post("/add_to_watchlist/{id}", h.AddToWatchlist)
		r.Get("/view_watchlist", h.ViewWatchlist)
		r.Delete("/delete_watchlist/{id}", h.DeleteFromWatchlist)
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.E(apperr.Validation, "Invalid JSON format")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response.WriteJSON(w, statusCode, data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	response.FromError(w, r, err)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.E(apperr.Validation, "Invalid ID")
	}
	return id, nil
}

// principal is set by requireToken; routes without it never call this.
func principal(r *http.Request) (*auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, apperr.E(apperr.Unauthenticated, "Authentication credentials were not provided")
	}
	return p, nil
}

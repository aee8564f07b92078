package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

func (h *Handlers) ListMovies(w http.ResponseWriter, r *http.Request) {
	filter, err := movieFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	movies, err := h.catalog.ListMovies(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MovieViews(movies))
}

func movieFilter(r *http.Request) (domain.MovieFilter, error) {
	q := r.URL.Query()
	filter := domain.MovieFilter{Search: strings.TrimSpace(q.Get("search"))}

	if v := q.Get("platform"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperr.E(apperr.Validation, "platform must be a number")
		}
		filter.PlatformID = &id
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperr.E(apperr.Validation, "active must be true or false")
		}
		filter.Active = &active
	}
	return filter, nil
}

func (h *Handlers) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.catalog.GetMovie(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handlers) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req domain.MovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.catalog.CreateMovie(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m.View())
}

func (h *Handlers) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	h.updateMovie(w, r, false)
}

func (h *Handlers) PatchMovie(w http.ResponseWriter, r *http.Request) {
	h.updateMovie(w, r, true)
}

func (h *Handlers) updateMovie(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req domain.MovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.catalog.UpdateMovie(r.Context(), id, &req, partial)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handlers) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.catalog.DeleteMovie(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

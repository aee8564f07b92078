package handlers

import (
	"net/http"

	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

// ListReviews returns the reviews of the movie in the path.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.catalog.ListReviews(r.Context(), movieID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ReviewViews(reviews))
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req domain.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rv, err := h.catalog.CreateReview(r.Context(), p, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv.View())
}

func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	h.updateReview(w, r, false)
}

func (h *Handlers) PatchReview(w http.ResponseWriter, r *http.Request) {
	h.updateReview(w, r, true)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request, partial bool) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req domain.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rv, err := h.catalog.UpdateReview(r.Context(), p, id, &req, partial)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv.View())
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.catalog.DeleteReview(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

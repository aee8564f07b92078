package handlers

import (
	"net/http"
)

func (h *Handlers) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	movieID, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.watchlist.Add(r.Context(), p, movieID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Movie added to watchlist",
		"movie":   m.View(),
	})
}

func (h *Handlers) ViewWatchlist(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.watchlist.List(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) DeleteFromWatchlist(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	movieID, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.watchlist.Remove(r.Context(), p, movieID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

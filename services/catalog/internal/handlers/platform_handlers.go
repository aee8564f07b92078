package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.catalog.ListPlatforms(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]*domain.PlatformView, len(platforms))
	for i := range platforms {
		views[i] = platforms[i].View()
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetPlatform(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.GetPlatform(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

func (h *Handlers) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	var req domain.PlatformRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.CreatePlatform(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p.View())
}

func (h *Handlers) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	h.updatePlatform(w, r, false)
}

func (h *Handlers) PatchPlatform(w http.ResponseWriter, r *http.Request) {
	h.updatePlatform(w, r, true)
}

func (h *Handlers) updatePlatform(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req domain.PlatformRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.UpdatePlatform(r.Context(), id, &req, partial)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

func (h *Handlers) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.catalog.DeletePlatform(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

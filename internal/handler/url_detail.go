package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/service"
)

// requireOwner resolves the authenticated identity or writes a 401.
func (h *Handler) requireOwner(rw http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || ownerID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return ownerID, true
}

// writeOwnedError maps the shared not-found/forbidden outcomes of owner
// operations; 403 and 404 are kept distinct and never leak record data.
func (h *Handler) writeOwnedError(rw http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeError(rw, http.StatusNotFound, "Not Found")
	case errors.Is(err, service.ErrForbidden):
		h.writeError(rw, http.StatusForbidden, "Forbidden")
	default:
		h.logger.Error("URL operation failed",
			zap.String("id", id),
			zap.Error(err))
		h.writeError(rw, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) GetURLHandler(rw http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(rw, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.service.GetURL(r.Context(), id, ownerID)
	if err != nil {
		h.writeOwnedError(rw, err, id)
		return
	}

	h.writeJSON(rw, http.StatusOK, toURLResponse(record))
}

func (h *Handler) UpdateURLHandler(rw http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(rw, r)
	if !ok {
		return
	}

	var req models.UpdateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.service.UpdateURL(r.Context(), id, ownerID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAlias):
			h.writeError(rw, http.StatusBadRequest, "customAlias must be 3-20 alphanumeric characters")
		case errors.Is(err, service.ErrAliasTaken):
			h.writeError(rw, http.StatusConflict, "Alias already in use")
		default:
			h.writeOwnedError(rw, err, id)
		}
		return
	}

	h.writeJSON(rw, http.StatusOK, toURLResponse(record))
}

func (h *Handler) DeleteURLHandler(rw http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(rw, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteURL(r.Context(), id, ownerID); err != nil {
		h.writeOwnedError(rw, err, id)
		return
	}

	h.writeJSON(rw, http.StatusOK, map[string]bool{"ok": true})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/service"
)

// CreateURLHandler handles POST /api/urls. Unauthenticated creation is
// allowed: ownership then falls back to a pseudonymous hash of the client IP.
func (h *Handler) CreateURLHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || ownerID == "" {
		ownerID = "anon:" + service.HashIP(clientIP(r))
	}

	record, err := h.service.CreateShortURL(r.Context(), req.OriginalURL, req.CustomAlias, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.writeError(rw, http.StatusBadRequest, "originalUrl must be an http or https URL of at most 2048 characters")
		case errors.Is(err, service.ErrInvalidAlias):
			h.writeError(rw, http.StatusBadRequest, "customAlias must be 3-20 alphanumeric characters")
		case errors.Is(err, service.ErrAliasTaken):
			h.writeError(rw, http.StatusConflict, "Alias already in use")
		default:
			h.logger.Error("Failed to create short URL", zap.Error(err))
			h.writeError(rw, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	resp := models.CreateURLResponse{
		ID:          record.ID,
		ShortCode:   record.ShortCode,
		ShortURL:    h.service.ShortURL(record.ShortCode),
		OriginalURL: record.OriginalURL,
	}

	h.writeJSON(rw, http.StatusCreated, resp)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/service"
)

// RedirectHandler resolves GET /{shortCode}. The lookup is exact and
// case-sensitive; click recording happens in the background and cannot delay
// or fail the redirect.
func (h *Handler) RedirectHandler(rw http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	if shortCode == "" {
		h.writeError(rw, http.StatusNotFound, "Not Found")
		return
	}

	record, err := h.service.Resolve(r.Context(), shortCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			h.writeError(rw, http.StatusNotFound, "Not Found")
		case errors.Is(err, service.ErrLinkInactive):
			h.writeError(rw, http.StatusGone, "Link is inactive")
		default:
			h.logger.Error("Failed to resolve short code",
				zap.String("shortCode", shortCode),
				zap.Error(err))
			h.writeError(rw, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	h.service.RecordClick(record.ID, clientIP(r))

	http.Redirect(rw, r, record.OriginalURL, http.StatusFound)
}

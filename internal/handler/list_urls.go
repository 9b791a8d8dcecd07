package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/models"
)

// defaultPageLimit applies only when the limit parameter is absent or not a
// number; an explicit out-of-range value is clamped instead.
const defaultPageLimit = 10

// ListURLsHandler handles GET /api/urls?page&limit&search&sortBy for the
// authenticated owner.
func (h *Handler) ListURLsHandler(rw http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || ownerID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := models.ListQuery{
		OwnerID: ownerID,
		Page:    intParam(r, "page", 1),
		Limit:   intParam(r, "limit", defaultPageLimit),
		Search:  r.URL.Query().Get("search"),
		Sort:    models.SortKey(r.URL.Query().Get("sortBy")),
	}

	items, total, err := h.service.ListURLs(r.Context(), &query)
	if err != nil {
		h.logger.Error("Failed to list URLs",
			zap.String("ownerID", ownerID),
			zap.Error(err))
		h.writeError(rw, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	resp := models.URLListResponse{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
		Items: make([]models.URLListItem, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = models.URLListItem{
			URLResponse: toURLResponse(&item.URL),
			ClickCount:  item.ClickCount,
		}
	}

	h.writeJSON(rw, http.StatusOK, resp)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

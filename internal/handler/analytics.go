package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mlukyanov/shortly/internal/models"
)

const dateLayout = "2006-01-02"

// AnalyticsHandler handles GET /api/urls/{id}/analytics?startDate&endDate.
// Bounds are calendar dates interpreted at local midnight: both present means
// inclusive between, a single bound leaves the other end open.
func (h *Handler) AnalyticsHandler(rw http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(rw, r)
	if !ok {
		return
	}

	var resolvedRange models.AnalyticsRange
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		start, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			h.writeError(rw, http.StatusBadRequest, "startDate must be a YYYY-MM-DD date")
			return
		}
		resolvedRange.Start = &start
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		end, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			h.writeError(rw, http.StatusBadRequest, "endDate must be a YYYY-MM-DD date")
			return
		}
		// The whole end day counts as inside the range.
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		resolvedRange.End = &end
	}

	id := chi.URLParam(r, "id")
	total, series, err := h.service.Analytics(r.Context(), id, ownerID, resolvedRange)
	if err != nil {
		h.writeOwnedError(rw, err, id)
		return
	}

	resp := models.AnalyticsResponse{
		Total:  total,
		Series: make([]models.DayCountResponse, len(series)),
	}
	for i, point := range series {
		resp.Series[i] = models.DayCountResponse{
			Day:   point.Day.Format(dateLayout),
			Count: point.Count,
		}
	}

	h.writeJSON(rw, http.StatusOK, resp)
}

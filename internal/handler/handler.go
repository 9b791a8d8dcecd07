package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/service"
)

type Handler struct {
	service *service.ShortenerService
	logger  *zap.Logger
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *service.ShortenerService, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		auth:    auth,
	}
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(rw http.ResponseWriter, status int, message string) {
	h.writeJSON(rw, status, models.ErrorResponse{Error: message})
}

// clientIP extracts the caller's address for click hashing and pseudonymous
// ownership: first entry of X-Forwarded-For, then X-Real-IP, then loopback.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return "127.0.0.1"
}

func toURLResponse(u *models.URL) models.URLResponse {
	return models.URLResponse{
		ID:          u.ID,
		OriginalURL: u.OriginalURL,
		ShortCode:   u.ShortCode,
		CustomAlias: u.CustomAlias,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

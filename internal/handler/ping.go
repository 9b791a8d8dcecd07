package handler

import (
	"net/http"

	"go.uber.org/zap"
)

func (h *Handler) PingHandler(rw http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("Storage ping failed", zap.Error(err))
		h.writeError(rw, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	rw.WriteHeader(http.StatusOK)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mlukyanov/shortly/internal/middleware"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Gzip)
	r.Use(h.auth.Handler)

	r.Get("/ping", h.PingHandler)

	r.Route("/api/urls", func(r chi.Router) {
		r.Post("/", h.CreateURLHandler)
		r.Get("/", h.ListURLsHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetURLHandler)
			r.Patch("/", h.UpdateURLHandler)
			r.Delete("/", h.DeleteURLHandler)
			r.Get("/analytics", h.AnalyticsHandler)
		})
	})

	r.Get("/{shortCode}", h.RedirectHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "Not Found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter mounts the API under /api/v1. mws run before every API handler,
// outermost first.
func NewRouter(h *AppointmentHandler, mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mws...)
		r.Get("/appointments", h.List)
		r.Post("/appointments/status", h.UpdateStatus)
		r.Get("/staff", h.Staff)
	})
	return r
}

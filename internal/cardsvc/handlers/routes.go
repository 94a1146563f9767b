package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Get("/health", h.HealthHandler)

	r.Route("/api/cards", func(r chi.Router) {
		r.Get("/", h.GetCards)
		r.Post("/", h.CreateCard)
		r.Delete("/{id}", h.DeleteCard)
	})
}

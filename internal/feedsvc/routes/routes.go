package routes

import (
	"github.com/avvvet/card-catalog/internal/feedsvc/handlers"
	"github.com/avvvet/card-catalog/internal/feedsvc/ws"
	"github.com/go-chi/chi"
)

func SetRoutes(r chi.Router, ws *ws.Ws, port string) {
	h := handlers.NewHandler(ws, port)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		r.Get("/health", h.HealthHandler)
	})
}

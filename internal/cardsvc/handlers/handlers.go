package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avvvet/card-catalog/internal/cardsvc/service"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	cards *service.CardService
	port  string
}

func NewHandler(cards *service.CardService, port string) *Handler {
	return &Handler{cards: cards, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// writeJSON sends a bare payload, the shape the catalog frontend reads.
func (h *Handler) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "card service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}

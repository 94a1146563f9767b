package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"github.com/avvvet/card-catalog/internal/cardsvc/store"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

// MaxImageSize bounds an uploaded card image.
const MaxImageSize = 10 << 20

// GET /api/cards?sortBy=name&search=charizard
func (h *Handler) GetCards(w http.ResponseWriter, r *http.Request) {
	var (
		cards []models.Card
		err   error
	)

	if search := r.URL.Query().Get("search"); search != "" {
		cards, err = h.cards.SearchCards(r.Context(), search)
	} else {
		cards, err = h.cards.GetAllCards(r.Context(), r.URL.Query().Get("sortBy"))
	}
	if err != nil {
		h.storeError(w, "list cards", err)
		return
	}

	h.writeJSON(w, http.StatusOK, cards)
}

// POST /api/cards (multipart/form-data: name, type, rarity, optional image)
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.badRequest(w, "invalid form: "+err.Error())
		return
	}

	in := models.NewCard{}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"name", &in.Name},
		{"type", &in.Type},
		{"rarity", &in.Rarity},
	} {
		if _, ok := r.Form[field.name]; !ok {
			h.badRequest(w, fmt.Sprintf("required parameter '%s' is missing", field.name))
			return
		}
		*field.dst = r.FormValue(field.name)
	}

	image, err := readImage(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	in.Image = image

	card, err := h.cards.SaveCard(r.Context(), in)
	if err != nil {
		h.storeError(w, "create card", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, card)
}

// DELETE /api/cards/{id}
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.cards.DeleteCard(r.Context(), id); err != nil {
		h.storeError(w, "delete card", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid image upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageSize)
	}
	return data, nil
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: msg})
}

func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrInvalidSortField) {
		h.badRequest(w, err.Error())
		return
	}

	log.Errorf("Error [%s] %v", op, err)
	h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: http.StatusText(http.StatusInternalServerError)})
}

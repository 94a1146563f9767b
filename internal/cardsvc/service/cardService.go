package service

import (
	"context"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"github.com/avvvet/card-catalog/internal/cardsvc/store"
)

// Notifier is told about every card that was created or deleted.
type Notifier interface {
	CardCreated(card models.Card)
	CardDeleted(id string)
}

type CardService struct {
	store    store.CardStore
	notifier Notifier
}

// NewCardService wires the service to a backend. notifier may be nil.
func NewCardService(store store.CardStore, notifier Notifier) *CardService {
	return &CardService{store: store, notifier: notifier}
}

// GetAllCards lists every card, ordered by sortBy when it is not empty.
func (s *CardService) GetAllCards(ctx context.Context, sortBy string) ([]models.Card, error) {
	sort, err := store.ParseSortField(sortBy)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, sort)
}

// SearchCards finds cards by name or type.
func (s *CardService) SearchCards(ctx context.Context, query string) ([]models.Card, error) {
	return s.store.Search(ctx, query)
}

func (s *CardService) SaveCard(ctx context.Context, card models.NewCard) (*models.Card, error) {
	created, err := s.store.Create(ctx, card)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.CardCreated(*created)
	}
	return created, nil
}

func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.CardDeleted(id)
	}
	return nil
}

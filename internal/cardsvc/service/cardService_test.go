package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"github.com/avvvet/card-catalog/internal/cardsvc/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	cards    []models.Card
	lastSort store.SortField
	lastQ    string
	deleted  []string
	err      error
}

func (f *fakeStore) Create(_ context.Context, in models.NewCard) (*models.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := models.Card{ID: "1", Name: in.Name, Type: in.Type, Rarity: in.Rarity}
	f.cards = append(f.cards, c)
	return &c, nil
}

func (f *fakeStore) List(_ context.Context, sort store.SortField) ([]models.Card, error) {
	f.lastSort = sort
	return f.cards, f.err
}

func (f *fakeStore) Search(_ context.Context, q string) ([]models.Card, error) {
	f.lastQ = q
	return f.cards, f.err
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type recorder struct {
	created []string
	deleted []string
}

func (r *recorder) CardCreated(c models.Card) { r.created = append(r.created, c.ID) }
func (r *recorder) CardDeleted(id string)     { r.deleted = append(r.deleted, id) }

func TestGetAllCards_SortField(t *testing.T) {
	fs := &fakeStore{}
	svc := NewCardService(fs, nil)

	_, err := svc.GetAllCards(context.Background(), "rarity")
	require.NoError(t, err)
	assert.Equal(t, store.SortRarity, fs.lastSort)

	_, err = svc.GetAllCards(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, store.SortNone, fs.lastSort)

	_, err = svc.GetAllCards(context.Background(), "hp")
	assert.ErrorIs(t, err, store.ErrInvalidSortField)
}

func TestSearchCards_PassesQueryThrough(t *testing.T) {
	fs := &fakeStore{}
	_, err := NewCardService(fs, nil).SearchCards(context.Background(), "char")
	require.NoError(t, err)
	assert.Equal(t, "char", fs.lastQ)
}

func TestSaveAndDelete_Notify(t *testing.T) {
	fs := &fakeStore{}
	rec := &recorder{}
	svc := NewCardService(fs, rec)

	card, err := svc.SaveCard(context.Background(), models.NewCard{Name: "Snorlax", Type: "Normal", Rarity: "Rare"})
	require.NoError(t, err)
	assert.Equal(t, "Snorlax", card.Name)
	require.NoError(t, svc.DeleteCard(context.Background(), "1"))

	assert.Equal(t, []string{"1"}, rec.created)
	assert.Equal(t, []string{"1"}, rec.deleted)
}

func TestStoreErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	fs := &fakeStore{err: boom}
	rec := &recorder{}
	svc := NewCardService(fs, rec)

	_, err := svc.SaveCard(context.Background(), models.NewCard{Name: "x"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.DeleteCard(context.Background(), "1"), boom)
	_, err = svc.GetAllCards(context.Background(), "")
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, rec.created)
	assert.Empty(t, rec.deleted)
}

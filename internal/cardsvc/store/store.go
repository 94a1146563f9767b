package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
)

var ErrInvalidSortField = errors.New("invalid sort field")

// CardStore is the storage contract every backend implements. The backend
// owns identifier generation.
type CardStore interface {
	Create(ctx context.Context, card models.NewCard) (*models.Card, error)
	// List returns every card, in store order when sort is SortNone.
	List(ctx context.Context, sort SortField) ([]models.Card, error)
	// Search matches query as a case-insensitive substring of name or type.
	// An empty query lists every card in store order.
	Search(ctx context.Context, query string) ([]models.Card, error)
	// Delete removes the card. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}

// SortField names a card property to order by, ascending.
type SortField string

const (
	SortNone      SortField = ""
	SortID        SortField = "id"
	SortName      SortField = "name"
	SortType      SortField = "type"
	SortRarity    SortField = "rarity"
	SortDateAdded SortField = "dateAdded"
)

// ParseSortField validates a caller supplied property name. An empty name
// means no ordering.
func ParseSortField(name string) (SortField, error) {
	switch f := SortField(name); f {
	case SortNone, SortID, SortName, SortType, SortRarity, SortDateAdded:
		return f, nil
	default:
		return SortNone, fmt.Errorf("%w: %q", ErrInvalidSortField, name)
	}
}

// Defaults says which layer fills in the creation date of a new card.
type Defaults int

const (
	// StoreDefaults leaves the date to a column default in the database.
	StoreDefaults Defaults = iota
	// AppDefaults stamps the date in the application before the insert.
	AppDefaults
)

func (d Defaults) String() string {
	if d == AppDefaults {
		return "app"
	}
	return "store"
}

// dateAdded returns the date the application must write, or nil when the
// store assigns it.
func (d Defaults) dateAdded(now func() time.Time) *time.Time {
	if d != AppDefaults {
		return nil
	}
	t := models.DateOf(now()).Time
	return &t
}

// imageOrNil folds an empty upload into "no image".
func imageOrNil(image []byte) []byte {
	if len(image) == 0 {
		return nil
	}
	return image
}

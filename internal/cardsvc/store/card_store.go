package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS pokemon_card (
		id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name       VARCHAR(255),
		type       VARCHAR(255),
		rarity     VARCHAR(255),
		image      BYTEA,
		date_added DATE NOT NULL DEFAULT CURRENT_DATE
	)
`

const cardColumns = `id, name, type, rarity, image, date_added`

// sqlSortColumns maps sort fields to relational column names.
var sqlSortColumns = map[SortField]string{
	SortID:        "id",
	SortName:      "name",
	SortType:      "type",
	SortRarity:    "rarity",
	SortDateAdded: "date_added",
}

// PostgresCardStore keeps cards in PostgreSQL. Ids come from an identity
// column.
type PostgresCardStore struct {
	db       *pgxpool.Pool
	defaults Defaults
	now      func() time.Time
}

func NewPostgresCardStore(db *pgxpool.Pool, defaults Defaults) *PostgresCardStore {
	return &PostgresCardStore{db: db, defaults: defaults, now: time.Now}
}

// EnsureSchema creates the card table when it does not exist yet.
func (s *PostgresCardStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create card table: %w", err)
	}
	return nil
}

func (s *PostgresCardStore) Create(ctx context.Context, in models.NewCard) (*models.Card, error) {
	query := `
		INSERT INTO pokemon_card (name, type, rarity, image, date_added)
		VALUES ($1, $2, $3, $4, COALESCE($5::date, CURRENT_DATE))
		RETURNING id, date_added
	`

	card := &models.Card{
		Name:   in.Name,
		Type:   in.Type,
		Rarity: in.Rarity,
		Image:  imageOrNil(in.Image),
	}

	var (
		id        int64
		dateAdded time.Time
	)
	err := s.db.QueryRow(ctx, query,
		card.Name, card.Type, card.Rarity, card.Image, s.defaults.dateAdded(s.now),
	).Scan(&id, &dateAdded)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	card.ID = strconv.FormatInt(id, 10)
	card.DateAdded = models.DateOf(dateAdded)
	return card, nil
}

func (s *PostgresCardStore) List(ctx context.Context, sort SortField) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM pokemon_card`
	if sort != SortNone {
		col, ok := sqlSortColumns[sort]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, sort)
		}
		query += ` ORDER BY ` + col
	}
	return s.query(ctx, query)
}

func (s *PostgresCardStore) Search(ctx context.Context, q string) ([]models.Card, error) {
	if q == "" {
		return s.List(ctx, SortNone)
	}

	query := `
		SELECT ` + cardColumns + `
		FROM pokemon_card
		WHERE strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(type), lower($1)) > 0
	`
	return s.query(ctx, query, q)
}

func (s *PostgresCardStore) Delete(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		// not an id this table could have issued
		return nil
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM pokemon_card WHERE id = $1`, key); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

func (s *PostgresCardStore) query(ctx context.Context, query string, args ...any) ([]models.Card, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	cards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Card, error) {
		var (
			c         models.Card
			id        int64
			name      *string
			typ       *string
			rarity    *string
			dateAdded time.Time
		)
		if err := row.Scan(&id, &name, &typ, &rarity, &c.Image, &dateAdded); err != nil {
			return c, err
		}
		c.ID = strconv.FormatInt(id, 10)
		c.Name, c.Type, c.Rarity = deref(name), deref(typ), deref(rarity)
		c.DateAdded = models.DateOf(dateAdded)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan cards: %w", err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

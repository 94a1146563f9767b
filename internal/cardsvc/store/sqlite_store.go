package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"modernc.org/sqlite"
)

// fold_case lower-cases text with full Unicode rules; sqlite's own lower()
// folds ASCII only.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold_case", 1, foldCase)
}

func foldCase(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// The embedded schema uses the same upper-case layout the snapshot exporter
// defaults to, so a catalog file can be exported as is.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS POKEMONCARD (
		ID         INTEGER PRIMARY KEY AUTOINCREMENT,
		NAME       VARCHAR(255),
		TYPE       VARCHAR(255),
		RARITY     VARCHAR(255),
		IMAGE      BLOB,
		DATE_ADDED DATE NOT NULL DEFAULT (date('now'))
	)
`

const sqliteColumns = `ID, NAME, TYPE, RARITY, IMAGE, DATE_ADDED`

// SQLiteCardStore keeps cards in an embedded database file.
type SQLiteCardStore struct {
	db       *sql.DB
	defaults Defaults
	now      func() time.Time
}

func NewSQLiteCardStore(db *sql.DB, defaults Defaults) *SQLiteCardStore {
	return &SQLiteCardStore{db: db, defaults: defaults, now: time.Now}
}

func (s *SQLiteCardStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create card table: %w", err)
	}
	return nil
}

func (s *SQLiteCardStore) Create(ctx context.Context, in models.NewCard) (*models.Card, error) {
	query := `
		INSERT INTO POKEMONCARD (NAME, TYPE, RARITY, IMAGE, DATE_ADDED)
		VALUES (?, ?, ?, ?, COALESCE(?, date('now')))
		RETURNING ID, DATE_ADDED
	`

	card := &models.Card{
		Name:   in.Name,
		Type:   in.Type,
		Rarity: in.Rarity,
		Image:  imageOrNil(in.Image),
	}

	// dates are stored as YYYY-MM-DD text, like date('now') produces
	var date any
	if t := s.defaults.dateAdded(s.now); t != nil {
		date = t.Format("2006-01-02")
	}

	var (
		id        int64
		dateAdded any
	)
	err := s.db.QueryRowContext(ctx, query,
		card.Name, card.Type, card.Rarity, card.Image, date,
	).Scan(&id, &dateAdded)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	card.ID = strconv.FormatInt(id, 10)
	if card.DateAdded, err = sqliteDate(dateAdded); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return card, nil
}

func (s *SQLiteCardStore) List(ctx context.Context, sort SortField) ([]models.Card, error) {
	query := `SELECT ` + sqliteColumns + ` FROM POKEMONCARD`
	if sort != SortNone {
		col, ok := sqlSortColumns[sort]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, sort)
		}
		query += ` ORDER BY ` + col
	}
	return s.query(ctx, query)
}

func (s *SQLiteCardStore) Search(ctx context.Context, q string) ([]models.Card, error) {
	if q == "" {
		return s.List(ctx, SortNone)
	}

	query := `
		SELECT ` + sqliteColumns + `
		FROM POKEMONCARD
		WHERE instr(fold_case(NAME), ?) > 0
		   OR instr(fold_case(TYPE), ?) > 0
	`
	needle := strings.ToLower(q)
	return s.query(ctx, query, needle, needle)
}

func (s *SQLiteCardStore) Delete(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM POKEMONCARD WHERE ID = ?`, key); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteCardStore) query(ctx context.Context, query string, args ...any) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var (
			c                 models.Card
			id                int64
			name, typ, rarity sql.NullString
			dateAdded         any
		)
		if err := rows.Scan(&id, &name, &typ, &rarity, &c.Image, &dateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		c.Name, c.Type, c.Rarity = name.String, typ.String, rarity.String
		if c.DateAdded, err = sqliteDate(dateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan card %s: %w", c.ID, err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	return cards, nil
}

// sqliteDate reads a DATE column, which the driver may hand back either as
// text or already parsed.
func sqliteDate(v any) (models.Date, error) {
	switch d := v.(type) {
	case time.Time:
		return models.DateOf(d), nil
	case string:
		return models.ParseDate(d)
	case []byte:
		return models.ParseDate(string(d))
	default:
		return models.Date{}, fmt.Errorf("unexpected date_added value %T", v)
	}
}

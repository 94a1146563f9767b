package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Card is one collectible in the catalog. ID and DateAdded are assigned when
// the card is created and never change afterwards.
type Card struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`   // e.g. Grass, Fire, Water
	Rarity    string `json:"rarity"` // e.g. Common, Rare, Ultra Rare
	Image     []byte `json:"image"`
	DateAdded Date   `json:"dateAdded"`
}

// NewCard holds the caller supplied fields of a card to create.
type NewCard struct {
	Name   string
	Type   string
	Rarity string
	Image  []byte // nil or empty means no image
}

// Date is a calendar date without time of day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

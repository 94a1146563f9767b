// Package migrate loads a snapshot export file into the document store,
// mapping the exporter's column labels onto card document fields.
package migrate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotArray = errors.New("export file is not a JSON array")

// Collection is the part of *mongo.Collection the migration writes through.
type Collection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Document is one card ready to be written. ID is empty for rows without an
// identifier, those are inserted and get a generated _id.
type Document struct {
	ID     string
	Fields bson.D
}

type Result struct {
	Migrated int
	Skipped  int
}

// ReadExport decodes an export file. Numbers are kept as json.Number so large
// identifiers survive unchanged.
func ReadExport(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, ErrNotArray
	}

	rows := make([]map[string]any, 0, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("export entry %d is not an object", i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DocumentFromRow maps one exported row. Upper-case labels win over their
// lower-case and camelCase spellings.
func DocumentFromRow(row map[string]any) (Document, error) {
	doc := Document{}

	if id := first(row, "ID", "id"); id != nil {
		doc.ID = scalarString(id)
	}

	for _, field := range []struct{ key, upper string }{
		{"name", "NAME"},
		{"type", "TYPE"},
		{"rarity", "RARITY"},
	} {
		if v := first(row, field.upper, field.key); v != nil {
			doc.Fields = append(doc.Fields, bson.E{Key: field.key, Value: scalarString(v)})
		}
	}

	if img := first(row, "IMAGE", "image"); img != nil {
		encoded, ok := img.(string)
		if !ok {
			return Document{}, fmt.Errorf("image is %T, want base64 string", img)
		}
		if encoded != "" {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return Document{}, fmt.Errorf("failed to decode image: %w", err)
			}
			doc.Fields = append(doc.Fields, bson.E{Key: "image", Value: primitive.Binary{Subtype: bson.TypeBinaryGeneric, Data: data}})
		}
	}

	if t, ok := parseDate(first(row, "DATE_ADDED", "date_added", "dateAdded")); ok {
		doc.Fields = append(doc.Fields, bson.E{Key: "dateAdded", Value: t})
	}

	return doc, nil
}

type Migrator struct {
	coll Collection
}

func NewMigrator(coll Collection) *Migrator {
	return &Migrator{coll: coll}
}

// Run writes every row. A row that cannot be mapped or written is logged and
// counted as skipped, it never stops the run.
func (m *Migrator) Run(ctx context.Context, rows []map[string]any) Result {
	res := Result{}
	for idx, row := range rows {
		if err := m.write(ctx, row); err != nil {
			log.WithFields(log.Fields{"index": idx}).Warnf("row skipped: %v", err)
			res.Skipped++
			continue
		}
		res.Migrated++
	}
	return res
}

func (m *Migrator) write(ctx context.Context, row map[string]any) error {
	doc, err := DocumentFromRow(row)
	if err != nil {
		return err
	}

	if doc.ID == "" {
		fields := doc.Fields
		if fields == nil {
			fields = bson.D{}
		}
		if _, err := m.coll.InsertOne(ctx, fields); err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
		return nil
	}

	// re-running an import updates cards in place
	update := bson.D{{Key: "$set", Value: doc.Fields}}
	if len(doc.Fields) == 0 {
		update = bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: doc.ID}}}}
	}
	if _, err := m.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert card %s: %w", doc.ID, err)
	}
	return nil
}

func first(row map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// parseDate accepts an ISO-8601 instant, a plain YYYY-MM-DD date (midnight
// UTC) or epoch milliseconds.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	case json.Number:
		if ms, err := x.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	case float64:
		return time.UnixMilli(int64(x)).UTC(), true
	}
	return time.Time{}, false
}

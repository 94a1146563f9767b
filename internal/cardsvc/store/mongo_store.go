package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/avvvet/card-catalog/internal/cardsvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CardCollection = "pokemon_cards"

// cardDocument is the stored shape of a card. _id is an ObjectID for cards
// created here and a plain string for cards migrated from a snapshot.
type cardDocument struct {
	ID        any       `bson:"_id,omitempty"`
	Name      string    `bson:"name"`
	Type      string    `bson:"type"`
	Rarity    string    `bson:"rarity"`
	Image     []byte    `bson:"image,omitempty"`
	DateAdded time.Time `bson:"dateAdded"`
}

var mongoSortFields = map[SortField]string{
	SortID:        "_id",
	SortName:      "name",
	SortType:      "type",
	SortRarity:    "rarity",
	SortDateAdded: "dateAdded",
}

// MongoCardStore keeps cards in a MongoDB collection. The document store has
// no column defaults, so the creation date is always stamped here.
type MongoCardStore struct {
	coll     *mongo.Collection
	defaults Defaults
	now      func() time.Time
}

func NewMongoCardStore(db *mongo.Database) *MongoCardStore {
	return &MongoCardStore{
		coll:     db.Collection(CardCollection),
		defaults: AppDefaults,
		now:      time.Now,
	}
}

func (s *MongoCardStore) Create(ctx context.Context, in models.NewCard) (*models.Card, error) {
	doc := cardDocument{
		Name:      in.Name,
		Type:      in.Type,
		Rarity:    in.Rarity,
		Image:     imageOrNil(in.Image),
		DateAdded: *s.defaults.dateAdded(s.now),
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	doc.ID = res.InsertedID

	card := doc.card()
	return &card, nil
}

func (s *MongoCardStore) List(ctx context.Context, sort SortField) ([]models.Card, error) {
	opts, err := findOptions(sort)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoCardStore) Search(ctx context.Context, q string) ([]models.Card, error) {
	if q == "" {
		return s.List(ctx, SortNone)
	}
	return s.find(ctx, searchFilter(q), options.Find())
}

func (s *MongoCardStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, idFilter(id)); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

func (s *MongoCardStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Card, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}

	cards := make([]models.Card, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, doc.card())
	}
	return cards, nil
}

func findOptions(sort SortField) (*options.FindOptions, error) {
	opts := options.Find()
	if sort == SortNone {
		return opts, nil
	}
	field, ok := mongoSortFields[sort]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, sort)
	}
	return opts.SetSort(bson.D{{Key: field, Value: 1}}), nil
}

// searchFilter matches q literally, ignoring case, inside name or type.
func searchFilter(q string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"type": pattern},
	}}
}

// idFilter matches id whether it was stored as an ObjectID or as a string.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

func (d cardDocument) card() models.Card {
	return models.Card{
		ID:        documentID(d.ID),
		Name:      d.Name,
		Type:      d.Type,
		Rarity:    d.Rarity,
		Image:     d.Image,
		DateAdded: models.DateOf(d.DateAdded),
	}
}

func documentID(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

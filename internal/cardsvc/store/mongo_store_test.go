package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSearchFilter_QuotesPattern(t *testing.T) {
	f := searchFilter("Mr. Mime+")

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)

	name := or[0].(bson.M)["name"].(primitive.Regex)
	assert.Equal(t, `Mr\. Mime\+`, name.Pattern)
	assert.Equal(t, "i", name.Options)

	typ := or[1].(bson.M)["type"].(primitive.Regex)
	assert.Equal(t, name, typ)
}

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	f := idFilter(oid.Hex())
	in := f["_id"].(bson.M)["$in"].(bson.A)
	assert.Equal(t, bson.A{oid, oid.Hex()}, in)

	// migrated cards keep their relational id as a string key
	assert.Equal(t, bson.M{"_id": "42"}, idFilter("42"))
}

func TestFindOptions(t *testing.T) {
	opts, err := findOptions(SortNone)
	require.NoError(t, err)
	assert.Nil(t, opts.Sort)

	opts, err = findOptions(SortDateAdded)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "dateAdded", Value: 1}}, opts.Sort)

	_, err = findOptions(SortField("image"))
	assert.ErrorIs(t, err, ErrInvalidSortField)
}

func TestCardDocument_Card(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := cardDocument{
		ID:        oid,
		Name:      "Onix",
		Type:      "Rock",
		Rarity:    "Common",
		DateAdded: time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC),
	}

	c := doc.card()
	assert.Equal(t, oid.Hex(), c.ID)
	assert.Equal(t, "2023-11-02", c.DateAdded.String())
	assert.Nil(t, c.Image)

	doc.ID = "7"
	assert.Equal(t, "7", doc.card().ID)
}

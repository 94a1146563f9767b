package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectToDB_InvalidURI(t *testing.T) {
	_, _, err := ConnectToDB("://not a uri")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing MongoDB URI")
}

func TestConnectToDB_DefaultDatabase(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	db, disconnect, err := ConnectToDB(uri)
	require.NoError(t, err)
	defer disconnect()

	assert.NotEmpty(t, db.Name())
	require.NoError(t, CreateSearchIndexes(context.Background(), db, "index_probe"))
	require.NoError(t, db.Collection("index_probe").Drop(context.Background()))
}

package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE probe (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "dir", "catalog.db"))
	assert.Error(t, err)
}

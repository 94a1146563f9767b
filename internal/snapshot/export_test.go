package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_ThreeRows(t *testing.T) {
	src := newSourceDB(t,
		`INSERT INTO POKEMONCARD VALUES (1, 'Charizard', 'Fire', 'Rare', X'89504E47', '2024-02-10')`,
		`INSERT INTO POKEMONCARD VALUES (NULL, 'Squirtle', 'Water', 'Common', NULL, '2024-02-11')`,
		`INSERT INTO POKEMONCARD VALUES (3, 'Mew', 'Psychic', 'Ultra Rare', X'', '2024-02-12')`,
	)
	out := filepath.Join(t.TempDir(), "export.json")

	res, err := Export(context.Background(), src, "pokemoncard", out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, "POKEMONCARD", res.Table)
	assert.Zero(t, res.Degraded)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, float64(1), first["ID"])
	assert.Equal(t, "Charizard", first["NAME"])
	assert.Equal(t, "2024-02-10T00:00:00Z", first["DATE_ADDED"])
	img, err := base64.StdEncoding.DecodeString(first["IMAGE"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img)

	second := rows[1]
	id, present := second["ID"]
	assert.True(t, present, "null cell must keep its key")
	assert.Nil(t, id)
	assert.Nil(t, second["IMAGE"])

	// zero-length blobs export as an empty string, not null
	third := rows[2]
	assert.Equal(t, "", third["IMAGE"])

	// keys follow source column order and output is indented
	i := bytes.Index(data, []byte(`"ID"`))
	j := bytes.Index(data, []byte(`"NAME"`))
	k := bytes.Index(data, []byte(`"DATE_ADDED"`))
	assert.True(t, i < j && j < k)
	assert.True(t, bytes.HasPrefix(data, []byte("[\n  {")))
}

func TestExport_TableNotFound(t *testing.T) {
	src := newSourceDB(t)
	out := filepath.Join(t.TempDir(), "export.json")

	_, err := Export(context.Background(), src, "decks", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output on lookup failure")
}

func TestExport_MixedCaseTable(t *testing.T) {
	src := filepath.Join(t.TempDir(), "mixed.db")
	db, err := sql.Open("sqlite", src)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE PokemonCard (ID INTEGER PRIMARY KEY, NAME TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO PokemonCard VALUES (1, 'Mew'), (2, 'Ditto')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	for _, name := range []string{"PokemonCard", "pokemoncard"} {
		out := filepath.Join(t.TempDir(), "export.json")
		res, err := Export(context.Background(), src, name, out)
		require.NoError(t, err, name)
		assert.Equal(t, "PokemonCard", res.Table)
		assert.Equal(t, 2, res.Rows)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"ID":1,"NAME":"Mew"},{"ID":2,"NAME":"Ditto"}]`, string(data))
	}
}

func TestExport_ConnectionFailure(t *testing.T) {
	_, err := Export(context.Background(), filepath.Join(t.TempDir(), "nope.db"), "POKEMONCARD", "out.json")
	assert.ErrorIs(t, err, ErrConnection)
}

func TestWriteFile_TruncatesExisting(t *testing.T) {
	out := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(out, bytes.Repeat([]byte("x"), 4096), 0644))

	n, err := WriteFile([]Record{{Columns: []string{"A"}, Values: []Value{Int(1)}}}, out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"A":1}]`, string(data))
}

func TestWriteFile_EmptyIsArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), "export.json")

	n, err := WriteFile(nil, out)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "no", "such", "dir", "export.json")

	_, err := WriteFile([]Record{}, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"CARD_BACKEND", "POSTGRES_URL", "MONGODB_URI", "SQLITE_PATH", "NATS_URL", "NATS_TOKEN", "CARD_SERVICE_PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "pokemonDB.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_BackendNeedsURL(t *testing.T) {
	clearEnv(t)

	t.Setenv("CARD_BACKEND", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_URL")

	t.Setenv("CARD_BACKEND", "mongo")
	_, err = Load()
	assert.ErrorContains(t, err, "MONGODB_URI")

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/pokemon_manager")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, cfg.Backend)
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARD_BACKEND", "h2")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown CARD_BACKEND")
}

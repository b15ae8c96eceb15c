package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Extraction.BaseURL)
	assert.False(t, cfg.Extraction.ForceMapReduce)
	assert.Equal(t, "mock", cfg.Interop.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:creditnexus.db", cfg.Database.DSN)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("EXTRACTION_URL", "http://extractor:8000")
	t.Setenv("EXTRACTION_FORCE_MAP_REDUCE", "true")
	t.Setenv("EXTRACTION_TIMEOUT", "2m")
	t.Setenv("INTEROP_MODE", "loopback")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_URL", "postgres://localhost:5432/creditnexus")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg := LoadConfig()

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "http://extractor:8000", cfg.Extraction.BaseURL)
	assert.True(t, cfg.Extraction.ForceMapReduce)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.Timeout)
	assert.Equal(t, "loopback", cfg.Interop.Mode)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Interop.Mode = "desktop"
	require.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Extraction.BaseURL = ""
	require.Error(t, cfg.Validate())
}

func TestGetEnvParsingFallsBackOnGarbage(t *testing.T) {
	t.Setenv("EXTRACTION_TIMEOUT", "soon")
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("EXTRACTION_FORCE_MAP_REDUCE", "yep")

	cfg := LoadConfig()
	assert.Equal(t, 90*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.False(t, cfg.Extraction.ForceMapReduce)
}

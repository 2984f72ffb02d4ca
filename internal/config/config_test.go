package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads; t.Setenv restores them after the
// test.
func clearEnv(t *testing.T) {
	for _, key := range []string{"ADDR", "DB_PATH", "STORAGE", "LOG_LEVEL", "PRICE_POLL_INTERVAL", "QUOTE_BASE_URL", "QUOTE_CACHE_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./investpulse.db", cfg.DBPath)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.PricePollInterval)
	assert.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9090")
	t.Setenv("STORAGE", "memory")
	t.Setenv("PRICE_POLL_INTERVAL", "1m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, time.Minute, cfg.PricePollInterval)
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":7000")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_PATH=/tmp/from-file.db\nLOG_LEVEL=debug\nADDR=:1\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.Addr, "environment wins over the file")
}

func TestInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "postgres")
	_, err := Load("")
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("QUOTE_CACHE_TTL", "soon")
	_, err = Load("")
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PRICE_POLL_INTERVAL", "-5s")
	_, err = Load("")
	assert.Error(t, err)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the runtime configuration, read from the environment after an
// optional .env file has been applied.
type Config struct {
	Addr     string
	DBPath   string
	Storage  string
	LogLevel string

	// PricePollInterval of zero disables the quote feed.
	PricePollInterval time.Duration
	QuoteBaseURL      string
	QuoteCacheTTL     time.Duration
}

// Load applies envFile when it exists and reads the configuration. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Addr:         envOr("ADDR", ":8080"),
		DBPath:       envOr("DB_PATH", "./investpulse.db"),
		Storage:      envOr("STORAGE", StorageSQLite),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		QuoteBaseURL: envOr("QUOTE_BASE_URL", "https://query2.finance.yahoo.com"),
	}

	var err error
	if cfg.PricePollInterval, err = durationEnv("PRICE_POLL_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	if cfg.QuoteCacheTTL, err = durationEnv("QUOTE_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageSQLite, StorageMemory, cfg.Storage)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

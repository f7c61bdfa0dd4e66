package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds all runtime configuration, read from the environment.
type AppConfig struct {
	Port string

	// ModelsDir is scanned for per-city model artifacts at startup.
	ModelsDir string

	// DatabaseURL selects the Postgres store; empty falls back to the
	// in-memory store.
	DatabaseURL string
	DBMaxConns  int

	// TrackedCities get a periodic auto-prediction.
	TrackedCities   []string
	PredictInterval time.Duration

	// HTTPTimeout bounds outbound weather/AQI lookups.
	HTTPTimeout time.Duration

	// StoreTimeout bounds every persistence call; a timeout is treated as a
	// persistence failure, not an inference failure.
	StoreTimeout time.Duration

	// StoreMaxHistory caps the in-memory store (0 = unlimited).
	StoreMaxHistory int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8000")
	cfg.ModelsDir = getenvDefault("MODELS_DIR", "models")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.DBMaxConns = getenvInt("DB_MAX_CONNS", 10)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 0)

	interval, err := time.ParseDuration(getenvDefault("PREDICT_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICT_INTERVAL: %w", err)
	}
	cfg.PredictInterval = interval

	httpTimeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	storeTimeout, err := time.ParseDuration(getenvDefault("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	cfg.StoreTimeout = storeTimeout

	for _, city := range strings.Split(os.Getenv("TRACKED_CITIES"), ",") {
		city = strings.TrimSpace(city)
		if city != "" {
			cfg.TrackedCities = append(cfg.TrackedCities, city)
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

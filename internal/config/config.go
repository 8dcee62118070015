// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	insider "github.com/RxDataLab/go-insider"
)

// Config holds every setting of the scanner
type Config struct {
	SecEmail     string
	MinInterval  time.Duration
	HTTPTimeout  time.Duration
	MaxRetries   uint64
	CacheTTL     time.Duration
	LogLevel     string
	DatabasePath string // empty disables persistence
	TickersFile  string // empty downloads company_tickers.json
}

// Load reads .env files (missing files are fine) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		SecEmail:     strings.TrimSpace(os.Getenv(insider.SecEmailEnvVar)),
		MinInterval:  time.Duration(getEnvAsInt("MIN_REQUEST_INTERVAL_MS", 110, &errs)) * time.Millisecond,
		HTTPTimeout:  time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30, &errs)) * time.Second,
		MaxRetries:   uint64(getEnvAsInt("FETCH_MAX_RETRIES", insider.DefaultMaxRetries, &errs)),
		CacheTTL:     time.Duration(getEnvAsInt("FETCH_CACHE_TTL_MINUTES", 10, &errs)) * time.Minute,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("INSIDER_DB_PATH", ""),
		TickersFile:  getEnv("TICKERS_FILE", ""),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireEmail validates the SEC contact address, needed before any fetch
func (c *Config) RequireEmail() error {
	return insider.ValidateEmail(c.SecEmail)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// getEnvAsInt parses a non-negative integer setting, recording bad values in errs
func getEnvAsInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a non-negative integer, got %q", key, v))
		return fallback
	}
	return n
}

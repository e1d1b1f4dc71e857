// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBigQuery = "bigquery"
)

// Config holds every setting of the API server and CLI.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	GeminiModel         string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ChatMaxOutputTokens int32  `env:"CHAT_MAX_OUTPUT_TOKENS" envDefault:"1000"`

	StoreBackend    string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL     string `env:"DATABASE_URL"`
	BigQueryProject string `env:"BIGQUERY_PROJECT"`
	BigQueryDataset string `env:"BIGQUERY_DATASET" envDefault:"finance"`

	ModelOutputBucket string   `env:"MODEL_OUTPUT_BUCKET"`
	CredentialsFile   string   `env:"GCP_CREDENTIALS_FILE"`
	APITokens         []string `env:"API_TOKENS" envSeparator:","`
	BcryptCost        int      `env:"BCRYPT_COST" envDefault:"10"`
	MaxSyntheticCount int      `env:"MAX_SYNTHETIC_COUNT" envDefault:"1000"`

	// SeedDefaultCategories is only honoured by the memory backend unless
	// set explicitly.
	SeedDefaultCategories *bool `env:"SEED_DEFAULT_CATEGORIES"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: reading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendBigQuery:
		if c.BigQueryProject == "" {
			errs = append(errs, errors.New("BIGQUERY_PROJECT is required for the bigquery backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.MaxSyntheticCount < 1 {
		errs = append(errs, errors.New("MAX_SYNTHETIC_COUNT must be at least 1"))
	}
	if c.ChatMaxOutputTokens < 1 {
		errs = append(errs, errors.New("CHAT_MAX_OUTPUT_TOKENS must be at least 1"))
	}

	return errors.Join(errs...)
}

// SeedDefaults reports whether default categories should be created at startup.
func (c *Config) SeedDefaults() bool {
	if c.SeedDefaultCategories != nil {
		return *c.SeedDefaultCategories
	}
	return c.StoreBackend == BackendMemory
}

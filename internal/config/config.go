// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultCorrelationWindow is the number of aligned daily bars used for
// pairwise correlation when no override is configured.
const DefaultCorrelationWindow = 400

// Config holds application configuration.
//
// Values are read from an optional YAML job file, then overridden by
// environment variables (a .env file is honored when present). All
// paths are resolved to absolute paths.
type Config struct {
	DataDir           string   `yaml:"data_dir"`   // directory of <SYMBOL>.csv / <SYMBOL>.json files
	OutputDir         string   `yaml:"output_dir"` // directory for generated reports
	MarketInfoCSV     string   `yaml:"market_info_csv"`
	HoldingsCSV       string   `yaml:"holdings_csv"`
	MinDate           string   `yaml:"min_date"` // inclusive load window, YYYY-MM-DD
	MaxDate           string   `yaml:"max_date"` // inclusive load window, YYYY-MM-DD
	CorrelationWindow int      `yaml:"correlation_window"`
	Symbols           []string `yaml:"symbols"` // optional filter; empty loads every symbol
	LogLevel          string   `yaml:"log_level"`
}

// Load builds the configuration from the YAML file at yamlPath (skipped
// when empty or missing) and the environment.
func Load(yamlPath string) (*Config, error) {
	// Load .env file if present (ignore errors, it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		MinDate:           "2010-01-01",
		MaxDate:           "2021-12-01",
		CorrelationWindow: DefaultCorrelationWindow,
		LogLevel:          "info",
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", yamlPath, err)
		}
	}

	cfg.DataDir = getEnv("QUANTFOLIO_DATA_DIR", cfg.DataDir)
	cfg.OutputDir = getEnv("QUANTFOLIO_OUTPUT_DIR", cfg.OutputDir)
	cfg.MarketInfoCSV = getEnv("QUANTFOLIO_MARKET_INFO", cfg.MarketInfoCSV)
	cfg.HoldingsCSV = getEnv("QUANTFOLIO_HOLDINGS", cfg.HoldingsCSV)
	cfg.MinDate = getEnv("QUANTFOLIO_MIN_DATE", cfg.MinDate)
	cfg.MaxDate = getEnv("QUANTFOLIO_MAX_DATE", cfg.MaxDate)
	cfg.LogLevel = getEnv("QUANTFOLIO_LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("QUANTFOLIO_CORRELATION_WINDOW"); v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid QUANTFOLIO_CORRELATION_WINDOW %q: %w", v, err)
		}
		cfg.CorrelationWindow = window
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for _, dir := range []*string{&cfg.DataDir, &cfg.OutputDir} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", *dir, err)
		}
		*dir = abs
	}
	return cfg, nil
}

// Window returns the configured [min, max] load window as dates.
func (c *Config) Window() (minDate, maxDate time.Time, err error) {
	minDate, err = time.Parse("2006-01-02", c.MinDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid min_date %q: %w", c.MinDate, err)
	}
	maxDate, err = time.Parse("2006-01-02", c.MaxDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid max_date %q: %w", c.MaxDate, err)
	}
	return minDate.UTC(), maxDate.UTC(), nil
}

func (c *Config) validate() error {
	if c.CorrelationWindow <= 0 {
		return fmt.Errorf("correlation_window must be positive, got %d", c.CorrelationWindow)
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// getEnv retrieves an environment variable value, returning a fallback
// if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

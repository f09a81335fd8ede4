package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Data     DataConfig
	Output   OutputConfig
}

// DatabaseConfig holds optional artifact-persistence settings. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds data source settings
type DataConfig struct {
	File string
}

// OutputConfig holds report/plot output settings
type OutputConfig struct {
	Dir        string
	Confidence float64
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Data:     DataConfig{File: os.Getenv("DATA_FILE")},
		Output: OutputConfig{
			Dir:        getEnv("OUTPUT_DIR", "out"),
			Confidence: 0.95,
		},
	}
	if v := os.Getenv("CONFIDENCE_LEVEL"); v != "" {
		level, err := strconv.ParseFloat(v, 64)
		if err != nil || level <= 0 || level >= 1 {
			return nil, fmt.Errorf("invalid CONFIDENCE_LEVEL %q", v)
		}
		cfg.Output.Confidence = level
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

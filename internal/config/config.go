package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	Port               string
	LogLevel           string
	ProximityTolerance float64
	CommissionRate     float64
	MaxUploadSizeBytes int64
}

// Load reads an optional .env file from the working directory, then the
// environment. Unset variables take their defaults; malformed ones are errors.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	tolerance, err := getEnvAsFloat("RECON_PROXIMITY_TOLERANCE", 1000)
	if err != nil {
		return nil, err
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("RECON_PROXIMITY_TOLERANCE must not be negative, got %v", tolerance)
	}

	rate, err := getEnvAsFloat("RECON_COMMISSION_RATE", 0.12)
	if err != nil {
		return nil, err
	}
	if rate <= 0 || rate >= 1 {
		return nil, fmt.Errorf("RECON_COMMISSION_RATE must be between 0 and 1, got %v", rate)
	}

	maxUpload, err := getEnvAsInt64("MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ProximityTolerance: tolerance,
		CommissionRate:     rate,
		MaxUploadSizeBytes: maxUpload,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, valueStr, err)
	}
	return value, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, valueStr, err)
	}
	return value, nil
}

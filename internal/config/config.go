package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TelegramToken string
	// AuthSecretHash is the SHA-256 hex digest of the shared secret
	// users authenticate with.
	AuthSecretHash string
	DatabasePath   string
	// Location is the fixed-offset timezone the date wheel initializes
	// to. Defaults to UTC-4.
	Location      *time.Location
	DrainInterval time.Duration
	PageLength    int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	secretHash := os.Getenv("AUTH_SECRET_HASH")
	if secretHash == "" {
		return nil, fmt.Errorf("AUTH_SECRET_HASH is not set")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./geconsultas.db"
	}

	offsetHours := intEnv("TIMEZONE_OFFSET_HOURS", -4)
	location := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)

	drainSeconds := intEnv("DRAIN_INTERVAL_SECONDS", 5)
	pageLength := intEnv("SELECTOR_PAGE_LENGTH", 5)

	return &Config{
		TelegramToken:  token,
		AuthSecretHash: secretHash,
		DatabasePath:   dbPath,
		Location:       location,
		DrainInterval:  time.Duration(drainSeconds) * time.Second,
		PageLength:     pageLength,
	}, nil
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}

package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
	Version     string

	// Remote store (PostgreSQL)
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Local durable storage directory (SQLite snapshot lives here)
	DataDir string

	APIKey string // API key for authentication

	// Webhook for badge-unlock celebration notifications (optional)
	BadgeWebhookURL string

	// Interval of the background remote sync while an identity is attached
	SyncInterval time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Environment:     getEnv("ENVIRONMENT", "dev"),
		ServiceName:     getEnv("SERVICE_NAME", "prepquest"),
		Version:         getEnv("VERSION", "dev"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBName:          getEnv("DB_NAME", "prepquest"),
		DataDir:         getEnv("DATA_DIR", "data"),
		APIKey:          getEnv("API_KEY", ""),
		BadgeWebhookURL: getEnv("BADGE_WEBHOOK_URL", ""),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	syncSecondsStr := getEnv("SYNC_INTERVAL_SECONDS", strconv.Itoa(DefaultSyncIntervalSeconds))
	syncSeconds, err := strconv.Atoi(syncSecondsStr)
	if err != nil || syncSeconds <= 0 {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL_SECONDS value: %q", syncSecondsStr)
	}
	cfg.SyncInterval = time.Duration(syncSeconds) * time.Second

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

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
	DatabasePath    string
	GeminiAPIKey    string
	NewsAPIKey      string
	LogLevel        string
	Port            int
	RefreshInterval time.Duration
	AssetPace       time.Duration
	FreshnessWindow time.Duration
	QuotaRetries    int
	DevMode         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:    getEnv("DATABASE_PATH", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		NewsAPIKey:      getEnv("NEWS_API_KEY", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("PORT", 8080),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 6*time.Hour),
		AssetPace:       getEnvAsDuration("ASSET_PACE", 4*time.Second),
		FreshnessWindow: getEnvAsDuration("FRESHNESS_WINDOW", 4*time.Hour),
		QuotaRetries:    getEnvAsInt("QUOTA_RETRIES", 3),
		DevMode:         getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
// The database path is the only fatal requirement; missing AI or news
// credentials degrade those features to sentinel outputs instead.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}

	return nil
}

// NewsKey returns the news provider credential, falling back to the Gemini
// key when no dedicated one is configured.
func (c *Config) NewsKey() string {
	if c.NewsAPIKey != "" {
		return c.NewsAPIKey
	}
	return c.GeminiAPIKey
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// HTTP
	HTTPPort    int      `env:"PORT" default:"8080"`
	APIPrefix   string   `env:"API_PREFIX" default:"/bookish-api/v1"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Authentication
	JWTSecret string        `env:"JWT_SECRET" required:"true"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" default:"168h"`

	// Redis Cache (empty URL disables the catalog cache)
	RedisURL        string        `env:"REDIS_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" default:"24h"`

	// Book catalog
	CatalogAPIURL          string        `env:"CATALOG_API_URL" default:"https://www.googleapis.com/books/v1"`
	CatalogAPIKey          string        `env:"CATALOG_API_KEY"`
	CatalogTimeout         time.Duration `env:"CATALOG_TIMEOUT" default:"5s"`
	CatalogEnrichTimeout   time.Duration `env:"CATALOG_ENRICH_TIMEOUT" default:"10s"`
	CatalogConcurrency     int           `env:"CATALOG_CONCURRENCY" default:"5"`
	CatalogRateLimit       int           `env:"CATALOG_RATE_LIMIT" default:"10"`
	RecommendationMaxPages int           `env:"RECOMMENDATION_MAX_PAGES" default:"5"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env is fine, system env vars still apply
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read .env file: %w", err)
	}

	config := &Config{}

	loadEnvString(&config.GoEnv, "GO_ENV", "development")

	// HTTP
	if err := loadEnvInt(&config.HTTPPort, "PORT", 8080); err != nil {
		return nil, err
	}
	loadEnvString(&config.APIPrefix, "API_PREFIX", "/bookish-api/v1")
	loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"})

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.JWTExpiry, "JWT_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}

	// Redis
	loadEnvString(&config.RedisURL, "REDIS_URL", "")
	if err := loadEnvDuration(&config.CatalogCacheTTL, "CATALOG_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	// Catalog
	loadEnvString(&config.CatalogAPIURL, "CATALOG_API_URL", "https://www.googleapis.com/books/v1")
	loadEnvString(&config.CatalogAPIKey, "CATALOG_API_KEY", "")
	if err := loadEnvDuration(&config.CatalogTimeout, "CATALOG_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.CatalogEnrichTimeout, "CATALOG_ENRICH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CatalogConcurrency, "CATALOG_CONCURRENCY", 5); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CatalogRateLimit, "CATALOG_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RecommendationMaxPages, "RECOMMENDATION_MAX_PAGES", 5); err != nil {
		return nil, err
	}

	// Logging
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "text")

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, v := range parts {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*target = out
	} else {
		*target = defaultValue
	}
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	if !strings.HasPrefix(c.APIPrefix, "/") {
		errors = append(errors, "API_PREFIX must start with /")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// short secrets are tolerated locally but never in production
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if c.CatalogConcurrency < 1 {
		errors = append(errors, "CATALOG_CONCURRENCY must be at least 1")
	}
	if c.CatalogRateLimit < 1 {
		errors = append(errors, "CATALOG_RATE_LIMIT must be at least 1")
	}
	if c.RecommendationMaxPages < 1 {
		errors = append(errors, "RECOMMENDATION_MAX_PAGES must be at least 1")
	}
	if c.CatalogTimeout <= 0 || c.CatalogEnrichTimeout <= 0 {
		errors = append(errors, "CATALOG_TIMEOUT and CATALOG_ENRICH_TIMEOUT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

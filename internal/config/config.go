package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/businessly/internal/helpers"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	SupabaseURL     string
	SupabaseAnonKey string

	MongoDBURI          string
	MongoDBPassword     string
	MongoDBDatabase     string
	MongoDBTransactions bool

	RedisURL       string
	WriteRateLimit int

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                getEnvWithDefault("PORT", "8080"),
		Environment:         getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:     os.Getenv("SUPABASE_URL_ANON_KEY"),
		MongoDBURI:          os.Getenv("MONGODB_URI"),
		MongoDBPassword:     os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:     getEnvWithDefault("MONGODB_DATABASE", "businessly"),
		RedisURL:            os.Getenv("REDIS_URL"),
		GeocoderURL:         getEnvWithDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent:   getEnvWithDefault("GEOCODER_USER_AGENT", "businessly/1.0"),
		AllowedOrigins:      helpers.SplitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	var err error
	if cfg.MongoDBTransactions, err = getEnvBool("MONGODB_TRANSACTIONS", false); err != nil {
		return nil, err
	}
	if cfg.WriteRateLimit, err = getEnvInt("WRITE_RATE_LIMIT", 30); err != nil {
		return nil, err
	}
	if cfg.GeocoderTimeout, err = getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
		return nil, fmt.Errorf("MONGODB_PASSWORD is required when MONGODB_URI has a <password> placeholder")
	}

	return cfg, nil
}

// MongoURI returns the connection string with the password substituted.
func (c *Config) MongoURI() string {
	return strings.Replace(c.MongoDBURI, "<password>", c.MongoDBPassword, 1)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s: %w", key, err)
	}
	return d, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

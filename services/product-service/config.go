package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all environment variables for the product-service.
type Config struct {
	Port         string        `validate:"required,numeric"`
	Environment  string        `validate:"required,oneof=development staging production"`
	MongoURL     string        `validate:"required"`
	MongoDB      string        `validate:"required"`
	RedisURL     string        // empty disables the detail cache
	CacheTTL     time.Duration `validate:"gte=0"`
	RateLimitRPM int           `validate:"gte=0"`
}

// LoadConfig loads environment variables into Config struct and validates them.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8082"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		MongoURL:     getEnv("MONGO_URL", "mongodb://mongo:27017"),
		MongoDB:      getEnv("MONGO_DB", "catalog"),
		RedisURL:     os.Getenv("REDIS_URL"),
		CacheTTL:     10 * time.Minute,
		RateLimitRPM: getInt("RATE_LIMIT_RPM", 600),
	}
	if raw := os.Getenv("PRODUCT_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("PRODUCT_CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid product-service config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/yashrajoria/storefront/services/cart-service/totals"
)

type Config struct {
	Port         string        `validate:"required,numeric"`
	Environment  string        `validate:"required,oneof=development staging production"`
	Storage      string        `validate:"required,oneof=redis dynamodb file memory"`
	RedisURL     string        `validate:"required_if=Storage redis"`
	DynamoTable  string        `validate:"required_if=Storage dynamodb"`
	FileDir      string        `validate:"required_if=Storage file"`
	CartTTL      time.Duration `validate:"gte=0"`
	RateLimitRPM int           `validate:"gte=0"`

	// Pricing is loaded by totals.FromEnv, as in order-service.
	Pricing totals.Calculator `validate:"-"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8086"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		Storage:      getEnv("CART_STORAGE", "redis"),
		RedisURL:     getEnv("REDIS_URL", "redis://redis:6379"),
		DynamoTable:  getEnv("CART_DYNAMO_TABLE", "carts"),
		FileDir:      getEnv("CART_FILE_DIR", "/var/lib/storefront/carts"),
		CartTTL:      getDuration("CART_TTL", 7*24*time.Hour),
		RateLimitRPM: getInt("RATE_LIMIT_RPM", 120),
	}

	pricing, err := totals.FromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("invalid cart-service config: %w", err)
	}
	cfg.Pricing = pricing

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid cart-service config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

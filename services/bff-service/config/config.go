package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the loaded configuration
type Config struct {
	BffAddr           string        `validate:"required"`
	Environment       string        `validate:"required,oneof=development staging production"`
	CartServiceURL    string        `validate:"required,url"`
	OrderServiceURL   string        `validate:"required,url"`
	PaymentServiceURL string        `validate:"required,url"`
	ProductServiceURL string        `validate:"required,url"`
	UpstreamTimeout   time.Duration `validate:"gt=0"`
	Currency          string        `validate:"required,len=3"`

	RazorpayKeyID string `validate:"required"`
	StoreName     string `validate:"required"`

	// JWTSecret verifies shopper tokens. TrustUserHeader lets a trusted proxy
	// in front of the bff supply X-User-ID instead; only for such deployments.
	JWTSecret       string `validate:"required_unless=TrustUserHeader true"`
	TrustUserHeader bool
	AllowedOrigins  []string `validate:"min=1,dive,required"`
}

// LoadConfig loads configuration from the .env file and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		BffAddr:           getEnv("BFF_SERVICE_ADDR", ":8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		CartServiceURL:    getEnv("CART_SERVICE_URL", "http://cart-service:8086"),
		OrderServiceURL:   getEnv("ORDER_SERVICE_URL", "http://order-service:8083"),
		PaymentServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://payment-service:8087"),
		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://product-service:8082"),
		UpstreamTimeout:   getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		Currency:          getEnv("CURRENCY", "INR"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		StoreName:         getEnv("STORE_NAME", "Tea Store"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TrustUserHeader:   os.Getenv("TRUST_USER_HEADER") == "true",
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}

	if cfg.TrustUserHeader {
		cfg.JWTSecret = ""
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid bff configuration: %w", err)
	}
	return cfg, nil
}

// Helper to get an environment variable or return a default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

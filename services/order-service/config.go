package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/cart-service/totals"
	"github.com/yashrajoria/storefront/services/common/database"
)

type Config struct {
	Port              string `validate:"required,numeric"`
	Environment       string `validate:"required,oneof=development staging production"`
	Postgres          database.PostgresConfig
	ProductServiceURL string `validate:"required,url"`
	OrderTopicArn     string
	PaymentQueueName  string
	RateLimitRPM      int               `validate:"gte=0"`
	Pricing           totals.Calculator `validate:"-"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8083"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		Postgres:          database.PostgresConfigFromEnv(),
		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://product-service:8082"),
		OrderTopicArn:     os.Getenv("ORDER_SNS_TOPIC_ARN"),
		PaymentQueueName:  getEnv("PAYMENT_EVENTS_QUEUE", "order-payment-events"),
		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 120),
	}

	pricing, err := totals.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid order-service config: %w", err)
	}
	cfg.Pricing = pricing

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			creds, err := awspkg.GetDBCredentials(context.Background(), awspkg.NewSecretsClient(awsCfg), "order/DB_CREDENTIALS")
			if err == nil {
				cfg.Postgres.Override(creds)
			}
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid order-service config: %w", err)
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

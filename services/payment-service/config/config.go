package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/database"
)

type Config struct {
	Port            string `validate:"required,numeric"`
	Environment     string `validate:"required,oneof=development staging production"`
	Postgres        database.PostgresConfig
	Provider        string `validate:"required,oneof=razorpay stripe"`
	RazorpayKeyID   string `validate:"required_if=Provider razorpay"`
	RazorpaySecret  string `validate:"required_if=Provider razorpay"`
	RazorpayBaseURL string `validate:"omitempty,url"`
	StripeSecretKey string `validate:"required_if=Provider stripe"`
	StripeWebhook   string `validate:"required_if=Provider stripe"`
	OrderServiceURL string `validate:"omitempty,url"`
	PaymentTopicArn string
	AuditBucket     string
	RateLimitRPM    int `validate:"gte=0"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8087"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		Postgres:        database.PostgresConfigFromEnv(),
		Provider:        getEnv("PAYMENT_PROVIDER", "razorpay"),
		RazorpayKeyID:   os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL: os.Getenv("RAZORPAY_BASE_URL"),
		StripeSecretKey: os.Getenv("STRIPE_API_KEY"),
		StripeWebhook:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		OrderServiceURL: os.Getenv("ORDER_SERVICE_URL"),
		PaymentTopicArn: getEnv("PAYMENT_SNS_TOPIC_ARN", "arn:aws:sns:eu-west-2:000000000000:payment-events"),
		AuditBucket:     os.Getenv("PAYMENT_AUDIT_BUCKET"),
		RateLimitRPM:    getInt("RATE_LIMIT_RPM", 120),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		ctx := context.Background()
		if awsCfg, err := awspkg.LoadAWSConfig(ctx); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			if creds, err := awspkg.GetDBCredentials(ctx, sm, "payment/DB_CREDENTIALS"); err == nil {
				cfg.Postgres.Override(creds)
			}
			overrideSecret(ctx, sm, "payment/RAZORPAY_KEY_SECRET", &cfg.RazorpaySecret)
			overrideSecret(ctx, sm, "payment/STRIPE_API_KEY", &cfg.StripeSecretKey)
			overrideSecret(ctx, sm, "payment/STRIPE_WEBHOOK_SECRET", &cfg.StripeWebhook)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid payment-service config: %w", err)
	}
	return cfg, nil
}

func overrideSecret(ctx context.Context, sm awspkg.SecretGetter, name string, dst *string) {
	if v, err := sm.GetSecret(ctx, name); err == nil && v != "" {
		*dst = v
	}
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

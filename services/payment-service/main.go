package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/database"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/payment-service/config"
	"github.com/yashrajoria/storefront/services/payment-service/controllers"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"github.com/yashrajoria/storefront/services/payment-service/providers"
	"github.com/yashrajoria/storefront/services/payment-service/repository"
	"github.com/yashrajoria/storefront/services/payment-service/routes"
	"github.com/yashrajoria/storefront/services/payment-service/services"
)

// republishInterval paces retries of payment events whose publish failed.
const republishInterval = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, "payment-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs disabled: %v\n", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, cwLogs.Sink())
	defer log.Sync()

	db, err := database.ConnectPostgres(cfg.Postgres, log, &models.Payment{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics disabled", zap.Error(err))
	}

	deps := services.Deps{Metrics: metricsClient, Logger: log}
	if cfg.OrderServiceURL != "" {
		deps.Orders = services.NewOrderClient(cfg.OrderServiceURL)
	}
	if awsCfg, err := awspkg.LoadAWSConfig(ctx); err != nil {
		log.Warn("AWS config unavailable; events and audit archive disabled", zap.Error(err))
	} else {
		deps.SNS = awspkg.NewSNSClient(awsCfg)
		deps.TopicArn = cfg.PaymentTopicArn
		if cfg.AuditBucket != "" {
			deps.Archive = awspkg.NewS3Archive(awsCfg, cfg.AuditBucket)
		}
	}

	var provider providers.PaymentProvider
	var stripeProvider *providers.StripeProvider
	switch cfg.Provider {
	case "stripe":
		stripeProvider = providers.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhook, nil)
		provider = stripeProvider
	default:
		provider = providers.NewRazorpayProvider(cfg.RazorpayKeyID, cfg.RazorpaySecret, cfg.RazorpayBaseURL)
	}
	paymentService := services.NewPaymentService(repository.NewGormPaymentRepo(db), provider, deps)
	go paymentService.RunRepublisher(ctx, republishInterval)

	var webhook *controllers.WebhookController
	if stripeProvider != nil && cfg.StripeWebhook != "" {
		webhook = controllers.NewWebhookController(stripeProvider, paymentService)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPM, cfg.RateLimitRPM/4+1))
	router.Use(middleware.MetricsMiddleware(metricsClient, "payment-service"))
	router.Use(apperrors.ErrorMiddleware())

	routes.RegisterPaymentRoutes(router, controllers.NewPaymentController(paymentService), webhook)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Payment service starting", zap.String("port", cfg.Port), zap.String("provider", provider.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

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
	"golang.org/x/sync/errgroup"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/database"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
	"github.com/yashrajoria/storefront/services/order-service/models"
	repositories "github.com/yashrajoria/storefront/services/order-service/repository"
	"github.com/yashrajoria/storefront/services/order-service/routes"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, "order-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs disabled: %v\n", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, cwLogs.Sink())
	defer log.Sync()

	db, err := database.ConnectPostgres(cfg.Postgres, log,
		&models.Order{}, &models.OrderItem{}, &models.Address{}, &models.Lead{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics disabled", zap.Error(err))
	}

	addressRepo := repositories.NewGormAddressRepository(db)
	opts := []services.Option{
		services.WithLogger(log),
		services.WithMetrics(metricsClient),
		services.WithAddresses(addressRepo),
	}

	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)
	if awsErr != nil {
		log.Warn("AWS config unavailable; events disabled", zap.Error(awsErr))
	} else if cfg.OrderTopicArn != "" {
		opts = append(opts, services.WithSNS(awspkg.NewSNSClient(awsCfg), cfg.OrderTopicArn))
	}

	orderService := services.NewOrderService(
		repositories.NewGormOrderRepository(db),
		services.NewCatalogClient(cfg.ProductServiceURL),
		cfg.Pricing,
		opts...,
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPM, cfg.RateLimitRPM/4+1))
	router.Use(middleware.MetricsMiddleware(metricsClient, "order-service"))
	router.Use(apperrors.ErrorMiddleware())

	routes.RegisterOrderRoutes(router, controllers.NewOrderController(orderService))
	addressService := services.NewAddressService(addressRepo, repositories.NewGormLeadRepository(db), log)
	routes.RegisterAddressRoutes(router, controllers.NewAddressController(addressService))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Order service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if awsErr == nil && cfg.PaymentQueueName != "" {
		queueURL, err := awspkg.GetQueueURL(ctx, awsCfg, cfg.PaymentQueueName)
		if err != nil {
			log.Warn("Payment events queue unavailable", zap.String("queue", cfg.PaymentQueueName), zap.Error(err))
		} else {
			consumer := services.NewSQSPaymentConsumer(awspkg.NewSQSConsumer(awsCfg, queueURL, log), orderService, metricsClient, log)
			g.Go(func() error { return consumer.Start(gctx) })
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Order service stopped with error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

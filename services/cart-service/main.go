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

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/cart-service/config"
	"github.com/yashrajoria/storefront/services/cart-service/controllers"
	"github.com/yashrajoria/storefront/services/cart-service/database"
	"github.com/yashrajoria/storefront/services/cart-service/routes"
	"github.com/yashrajoria/storefront/services/cart-service/store"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, "cart-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs disabled: %v\n", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, cwLogs.Sink())
	defer log.Sync()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open cart storage", zap.String("backend", cfg.Storage), zap.Error(err))
	}
	defer closeStorage()

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics disabled", zap.Error(err))
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
	router.Use(middleware.MetricsMiddleware(metricsClient, "cart-service"))
	router.Use(apperrors.ErrorMiddleware())

	controller := controllers.NewCartController(store.NewRegistry(storage, log), cfg.Pricing)
	routes.RegisterCartRoutes(router, controller)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Cart service starting", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage))
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

func openStorage(ctx context.Context, cfg config.Config) (store.BlobStorage, func(), error) {
	noop := func() {}

	switch cfg.Storage {
	case "redis":
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return database.NewRedisBlobStorage(client, cfg.CartTTL), func() { _ = client.Close() }, nil
	case "dynamodb":
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, noop, err
		}
		return database.NewDynamoBlobStorage(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable, cfg.CartTTL), noop, nil
	case "file":
		fs, err := database.NewFileBlobStorage(cfg.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	default:
		return store.NewMemoryStorage(), noop, nil
	}
}

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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/database"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/product-service/cache"
	"github.com/yashrajoria/storefront/services/product-service/controllers"
	"github.com/yashrajoria/storefront/services/product-service/repository"
	"github.com/yashrajoria/storefront/services/product-service/routes"
	"github.com/yashrajoria/storefront/services/product-service/services"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, "product-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs disabled: %v\n", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, cwLogs.Sink())
	defer log.Sync()

	mongoClient, db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.DisconnectMongo(mongoClient, log)

	productRepo := repository.NewProductRepository(db)
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics disabled", zap.Error(err))
	}

	var redisClient *redis.Client
	var detailCache controllers.DetailCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		detailCache = cache.NewCacheManager(redisClient, cfg.CacheTTL, metricsClient, log)
	} else {
		log.Info("REDIS_URL not set; product detail cache disabled")
	}

	productController := controllers.NewProductController(services.NewProductService(productRepo), detailCache)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPM, cfg.RateLimitRPM/4+1))
	r.Use(middleware.MetricsMiddleware(metricsClient, "product-service"))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, productController)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Product Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Product Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	log.Info("Product Service stopped gracefully")
}

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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/bff-service/checkout"
	"github.com/yashrajoria/storefront/services/bff-service/clients"
	"github.com/yashrajoria/storefront/services/bff-service/config"
	"github.com/yashrajoria/storefront/services/bff-service/controllers"
	"github.com/yashrajoria/storefront/services/bff-service/gateway"
	"github.com/yashrajoria/storefront/services/bff-service/routes"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, "bff-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs disabled: %v\n", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, cwLogs.Sink())
	defer log.Sync()

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics disabled", zap.Error(err))
	}

	cartSvc := clients.NewServiceClient(cfg.CartServiceURL, cfg.UpstreamTimeout)
	orderSvc := clients.NewServiceClient(cfg.OrderServiceURL, cfg.UpstreamTimeout)
	paymentSvc := clients.NewServiceClient(cfg.PaymentServiceURL, cfg.UpstreamTimeout)
	productSvc := clients.NewServiceClient(cfg.ProductServiceURL, cfg.UpstreamTimeout)

	cartClient := clients.NewCartClient(cartSvc)
	orderClient := clients.NewOrderClient(orderSvc)
	paymentClient := clients.NewPaymentClient(paymentSvc)
	relay := gateway.NewRelay()
	widget := gateway.WidgetOptions{
		Key:         cfg.RazorpayKeyID,
		Name:        cfg.StoreName,
		Description: "Order payment",
	}

	attempts := controllers.NewAttempts(func(owner string, observer checkout.Observer) *checkout.Orchestrator {
		return checkout.NewOrchestrator(
			owner,
			cartClient.For(owner),
			orderClient,
			gateway.NewAdapter(paymentClient, relay, owner, widget, nil),
			paymentClient,
			checkout.Options{
				Currency: cfg.Currency,
				Logger:   log,
				Metrics:  metricsClient,
				Observer: observer,
			},
		)
	})

	verifier := auth.NewTokenVerifier(cfg.JWTSecret)
	if verifier == nil {
		log.Warn("Shopper tokens disabled; trusting X-User-ID from the upstream proxy")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(300, 60))
	r.Use(middleware.MetricsMiddleware(metricsClient, "bff-service"))

	routes.RegisterRoutes(r,
		controllers.NewProxyController(),
		controllers.NewCheckoutController(ctx, attempts, relay),
		routes.Upstreams{Cart: cartSvc, Orders: orderSvc, Products: productSvc},
		verifier,
	)

	srv := &http.Server{
		Addr:              cfg.BffAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("BFF service starting", zap.String("addr", cfg.BffAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
}

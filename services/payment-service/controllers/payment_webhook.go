package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/payment-service/services"
)

const maxWebhookBody = 64 << 10

// WebhookParser authenticates a raw webhook body.
type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type WebhookController struct {
	parser   WebhookParser
	payments *services.PaymentService
}

func NewWebhookController(parser WebhookParser, payments *services.PaymentService) *WebhookController {
	return &WebhookController{parser: parser, payments: payments}
}

// StripeWebhook receives and dispatches Stripe webhook events.
func (wc *WebhookController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	event, err := wc.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(c.Request.Context(), "Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	logger.Info(c.Request.Context(), "Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	if err := wc.payments.HandleStripeEvent(c.Request.Context(), event); err != nil {
		logger.Error(c.Request.Context(), "Failed to apply Stripe webhook", err, zap.String("event_id", event.ID))
		// A non-2xx makes Stripe redeliver.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not applied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

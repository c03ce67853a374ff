package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/order-service/models"
)

type queuePoller interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
}

// SQSPaymentConsumer consumes payment events from SQS and updates order status
type SQSPaymentConsumer struct {
	poller  queuePoller
	orders  *OrderService
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
}

// NewSQSPaymentConsumer creates a new SQS-based payment event consumer
func NewSQSPaymentConsumer(poller queuePoller, orders *OrderService, metrics awspkg.MetricsRecorder, logger *zap.Logger) *SQSPaymentConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSPaymentConsumer{
		poller:  poller,
		orders:  orders,
		metrics: metrics,
		logger:  logger.Named("payment-consumer"),
	}
}

// Start polls the payment events queue until ctx is cancelled.
func (c *SQSPaymentConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting payment events queue consumer")

	err := c.poller.StartPolling(ctx, c.handleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("Payment queue polling stopped", zap.Error(err))
		return err
	}
	return nil
}

func (c *SQSPaymentConsumer) handleMessage(ctx context.Context, body string) error {
	body = awspkg.UnwrapSNSEnvelope(body)

	var evt models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		// Malformed payloads are dropped rather than retried.
		c.logger.Error("Invalid payment event JSON", zap.Error(err), zap.String("payload", body))
		return nil
	}
	if evt.OrderID == "" || evt.Type == "" {
		c.logger.Warn("Payment event missing fields", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
		return nil
	}

	if c.metrics != nil {
		_ = c.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"Service": "order-service", "Type": evt.Type})
	}
	return c.orders.ApplyPaymentEvent(ctx, evt)
}

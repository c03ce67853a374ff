package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
	"gorm.io/gorm"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"github.com/yashrajoria/storefront/services/payment-service/providers"
	"github.com/yashrajoria/storefront/services/payment-service/repository"
)

const republishBatch = 100

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

type CreatePaymentOrderRequest struct {
	AmountMinor int64  `json:"amountMinor" binding:"required,min=1"`
	Currency    string `json:"currency" binding:"required,len=3"`
	Receipt     string `json:"receipt" binding:"required,max=64"`
}

type PaymentOrderResponse struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	AmountMinor    int64  `json:"amountMinor"`
	Currency       string `json:"currency"`
	Provider       string `json:"provider"`
	ClientSecret   string `json:"clientSecret,omitempty"`
}

type VerifyPaymentRequest struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature"`
}

// VerifyResult is the outcome of a verification. Success false means the
// proof was rejected.
type VerifyResult struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderId,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
}

type PaymentService struct {
	repo     repository.PaymentRepository
	provider providers.PaymentProvider
	orders   OrderReader
	sns      awspkg.SNSPublisher
	topicArn string
	archive  awspkg.ObjectUploader
	metrics  awspkg.MetricsRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// Deps are the optional collaborators of PaymentService. Nil fields disable
// the matching feature.
type Deps struct {
	Orders   OrderReader
	SNS      awspkg.SNSPublisher
	TopicArn string
	Archive  awspkg.ObjectUploader
	Metrics  awspkg.MetricsRecorder
	Logger   *zap.Logger
}

func NewPaymentService(repo repository.PaymentRepository, provider providers.PaymentProvider, deps Deps) *PaymentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:     repo,
		provider: provider,
		orders:   deps.Orders,
		sns:      deps.SNS,
		topicArn: deps.TopicArn,
		archive:  deps.Archive,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreatePaymentOrder opens a gateway order for an existing order. When an
// order reader is configured the amount must equal the order total.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID string, req *CreatePaymentOrderRequest) (*PaymentOrderResponse, *ServiceError) {
	if req.AmountMinor <= 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "amountMinor must be positive"}
	}
	currency := strings.ToUpper(req.Currency)
	log := s.logger.With(zap.String("order_id", req.Receipt))

	if s.orders != nil {
		order, err := s.orders.GetOrder(ctx, req.Receipt)
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
		case err != nil:
			log.Error("Order lookup failed", zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Order service unavailable"}
		case order.TotalMinor != req.AmountMinor:
			log.Warn("Payment amount does not match order total",
				zap.Int64("requested_minor", req.AmountMinor), zap.Int64("order_total_minor", order.TotalMinor))
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Amount does not match order total"}
		case order.Status == "paid":
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Order already paid"}
		}
		if userID == "" {
			userID = order.UserID
		}
	}

	gwOrder, err := s.provider.CreateOrder(ctx, req.AmountMinor, currency, req.Receipt)
	if err != nil {
		log.Error("Gateway order creation failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Payment gateway unavailable"}
	}
	log = log.With(zap.String("gateway_order_id", gwOrder.ID))

	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        req.Receipt,
		UserID:         userID,
		Provider:       s.provider.Name(),
		GatewayOrderID: gwOrder.ID,
		AmountMinor:    req.AmountMinor,
		Currency:       currency,
		Status:         models.StatusCreated,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		log.Error("Failed to save payment", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to save payment"}
	}

	_ = s.publish(ctx, payment, models.EventPaymentOrderCreated, "")
	s.count(ctx, awspkg.MetricPaymentOrderCreated)
	log.Info("Payment order created", zap.Int64("amount_minor", payment.AmountMinor))

	return &PaymentOrderResponse{
		GatewayOrderID: gwOrder.ID,
		AmountMinor:    payment.AmountMinor,
		Currency:       payment.Currency,
		Provider:       payment.Provider,
		ClientSecret:   gwOrder.ClientSecret,
	}, nil
}

// VerifyPayment checks the widget proof with the provider. A rejected proof
// leaves the payment and the order untouched.
func (s *PaymentService) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest) (*VerifyResult, *ServiceError) {
	log := s.logger.With(zap.String("gateway_order_id", req.GatewayOrderID))

	payment, err := s.repo.GetPaymentByGatewayOrderID(ctx, req.GatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Payment not found"}
	}
	if err != nil {
		log.Error("Payment lookup failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load payment"}
	}
	log = log.With(zap.String("order_id", payment.OrderID))

	if req.OrderID != "" && req.OrderID != payment.OrderID {
		return s.rejected(ctx, log, req, "order id does not match gateway order"), nil
	}

	switch payment.Status {
	case models.StatusSucceeded:
		if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == req.GatewayPaymentID {
			if payment.EventPending {
				_ = s.settle(ctx, payment)
			}
			return &VerifyResult{Success: true, OrderID: payment.OrderID, PaymentID: req.GatewayPaymentID}, nil
		}
		return s.rejected(ctx, log, req, "payment already settled with another payment id"), nil
	case models.StatusFailed:
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Payment already failed"}
	}

	ok, err := s.provider.VerifyPayment(ctx, providers.Proof{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}, payment.AmountMinor)
	if err != nil {
		log.Error("Provider verification failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Payment gateway unavailable"}
	}
	if !ok {
		return s.rejected(ctx, log, req, "signature mismatch"), nil
	}

	now := s.now()
	applied, err := s.repo.MarkSucceeded(ctx, payment.ID, req.GatewayPaymentID, now)
	if err != nil {
		log.Error("Failed to mark payment succeeded", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update payment"}
	}
	if !applied {
		// Lost a race with the webhook or a concurrent verify.
		current, err := s.repo.GetPaymentByGatewayOrderID(ctx, req.GatewayOrderID)
		if err == nil && current.Status == models.StatusSucceeded &&
			current.GatewayPaymentID != nil && *current.GatewayPaymentID == req.GatewayPaymentID {
			if current.EventPending {
				_ = s.settle(ctx, current)
			}
			return &VerifyResult{Success: true, OrderID: payment.OrderID, PaymentID: req.GatewayPaymentID}, nil
		}
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Payment already finalized"}
	}

	payment.Status = models.StatusSucceeded
	payment.GatewayPaymentID = &req.GatewayPaymentID
	payment.SucceededAt = &now
	payment.EventPending = true

	// The payment is final even if the event cannot be sent now; a repeat
	// verify or the republisher sends it later.
	_ = s.settle(ctx, payment)
	s.count(ctx, awspkg.MetricPaymentSucceeded)
	s.archiveVerification(ctx, log, payment)
	log.Info("Payment verified", zap.String("payment_id", req.GatewayPaymentID))

	return &VerifyResult{Success: true, OrderID: payment.OrderID, PaymentID: req.GatewayPaymentID}, nil
}

// HandleStripeEvent applies payment_intent webhooks. Terminal payments are
// never rewritten, so redelivered events are harmless.
func (s *PaymentService) HandleStripeEvent(ctx context.Context, event stripe.Event) error {
	var status string
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = models.StatusSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		status = models.StatusFailed
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	log := s.logger.With(zap.String("gateway_order_id", pi.ID), zap.String("event_id", event.ID))

	payment, err := s.repo.GetPaymentByGatewayOrderID(ctx, pi.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Payment not found for PaymentIntent")
		return nil
	}
	if err != nil {
		return err
	}
	if payment.IsTerminal() {
		if payment.EventPending {
			return s.settle(ctx, payment)
		}
		log.Info("Skipping duplicate payment webhook", zap.String("status", payment.Status))
		return nil
	}

	now := s.now()
	var applied bool
	reason := ""
	if status == models.StatusSucceeded {
		applied, err = s.repo.MarkSucceeded(ctx, payment.ID, pi.ID, now)
	} else {
		reason = "payment_failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		applied, err = s.repo.MarkFailed(ctx, payment.ID, reason, now)
	}
	if err != nil {
		return err
	}
	if !applied {
		log.Info("Skipping duplicate payment webhook")
		return nil
	}

	payment.Status = status
	payment.EventPending = true
	if status == models.StatusSucceeded {
		payment.GatewayPaymentID = &pi.ID
		payment.SucceededAt = &now
		s.count(ctx, awspkg.MetricPaymentSucceeded)
		s.archiveVerification(ctx, log, payment)
	} else {
		payment.FailureReason = reason
		payment.FailedAt = &now
		s.count(ctx, awspkg.MetricPaymentFailed)
	}
	log.Info("Payment updated from webhook", zap.String("status", status))

	// An error makes Stripe redeliver, and the redelivery republishes.
	return s.settle(ctx, payment)
}

// settle publishes the event of a terminal payment and clears its pending
// flag. On failure the flag stays set for the next attempt.
func (s *PaymentService) settle(ctx context.Context, p *models.Payment) error {
	eventType, reason := models.EventPaymentSucceeded, ""
	if p.Status == models.StatusFailed {
		eventType, reason = models.EventPaymentFailed, p.FailureReason
	}
	if err := s.publish(ctx, p, eventType, reason); err != nil {
		return err
	}
	if err := s.repo.ClearEventPending(ctx, p.ID); err != nil {
		s.logger.Error("Failed to clear pending payment event",
			zap.String("order_id", p.OrderID), zap.Error(err))
		return err
	}
	p.EventPending = false
	return nil
}

// RepublishPending retries the events of terminal payments whose publish
// failed. It returns how many were sent.
func (s *PaymentService) RepublishPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.ListEventPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range pending {
		if err := s.settle(ctx, &pending[i]); err == nil {
			sent++
		}
	}
	return sent, nil
}

// RunRepublisher calls RepublishPending every interval until ctx is done.
func (s *PaymentService) RunRepublisher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.RepublishPending(ctx, republishBatch)
			if err != nil {
				s.logger.Warn("Pending payment events lookup failed", zap.Error(err))
			} else if sent > 0 {
				s.logger.Info("Republished pending payment events", zap.Int("count", sent))
			}
		}
	}
}

func (s *PaymentService) rejected(ctx context.Context, log *zap.Logger, req *VerifyPaymentRequest, why string) *VerifyResult {
	log.Warn("Payment verification rejected; possible tampering",
		zap.String("reason", why),
		zap.String("gateway_payment_id", req.GatewayPaymentID),
	)
	s.count(ctx, awspkg.MetricPaymentSignatureMismatch)
	return &VerifyResult{Success: false}
}

func (s *PaymentService) publish(ctx context.Context, p *models.Payment, eventType, reason string) error {
	if s.sns == nil || s.topicArn == "" {
		return nil
	}
	evt := models.PaymentEvent{
		Type:           eventType,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		GatewayOrderID: p.GatewayOrderID,
		Amount:         p.AmountMinor,
		Currency:       p.Currency,
		Reason:         reason,
		Timestamp:      s.now(),
	}
	if p.GatewayPaymentID != nil {
		evt.PaymentID = *p.GatewayPaymentID
	}
	payload, _ := json.Marshal(evt)
	if err := s.sns.Publish(ctx, s.topicArn, payload); err != nil {
		s.logger.Error("Failed to publish payment event to SNS",
			zap.String("event_type", eventType),
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Payment event published to SNS",
		zap.String("event_type", eventType),
		zap.String("order_id", p.OrderID),
	)
	return nil
}

func (s *PaymentService) archiveVerification(ctx context.Context, log *zap.Logger, p *models.Payment) {
	if s.archive == nil {
		return
	}
	rec := models.VerificationRecord{
		PaymentID:      p.ID.String(),
		OrderID:        p.OrderID,
		Provider:       p.Provider,
		GatewayOrderID: p.GatewayOrderID,
		AmountMinor:    p.AmountMinor,
		Currency:       p.Currency,
		VerifiedAt:     s.now(),
	}
	if p.GatewayPaymentID != nil {
		rec.GatewayPaymentID = *p.GatewayPaymentID
	}
	body, _ := json.Marshal(rec)
	key := fmt.Sprintf("verifications/%s/%s.json", rec.VerifiedAt.Format("2006/01/02"), p.GatewayOrderID)
	if err := s.archive.PutJSON(ctx, key, body); err != nil {
		log.Warn("Failed to archive payment verification", zap.String("key", key), zap.Error(err))
	}
}

func (s *PaymentService) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "payment-service", "Provider": s.provider.Name()})
}

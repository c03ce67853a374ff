package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	cartmodels "github.com/yashrajoria/storefront/services/cart-service/models"
	"github.com/yashrajoria/storefront/services/cart-service/totals"
	"github.com/yashrajoria/storefront/services/order-service/models"
	repositories "github.com/yashrajoria/storefront/services/order-service/repository"
)

const defaultCurrency = "INR"

type OrderItemRequest struct {
	VariantID int64 `json:"variantId" binding:"required,min=1"`
	Qty       int   `json:"qty" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	Items     []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	// AddressID selects a saved address; the default address is used when empty.
	AddressID *uuid.UUID         `json:"addressId"`
}

// CreatedOrder is the reply to a successful POST /orders.
type CreatedOrder struct {
	ID            string `json:"id"`
	SubtotalMinor int64  `json:"subtotalMinor"`
	ShippingMinor int64  `json:"shippingMinor"`
	TaxMinor      int64  `json:"taxMinor"`
	TotalMinor    int64  `json:"totalMinor"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`

	// Replayed is set when the idempotency key matched an earlier order.
	Replayed bool `json:"-"`
}

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type OrderService struct {
	orderRepo   repositories.OrderRepository
	addresses   repositories.AddressRepository
	catalog     VariantLookup
	calc        totals.Calculator
	snsClient   awspkg.SNSPublisher
	snsTopicArn string
	metrics     awspkg.MetricsRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures optional collaborators of OrderService.
type Option func(*OrderService)

func WithSNS(client awspkg.SNSPublisher, topicArn string) Option {
	return func(s *OrderService) {
		s.snsClient = client
		s.snsTopicArn = topicArn
	}
}

// WithAddresses enables shipping address snapshots on new orders.
func WithAddresses(repo repositories.AddressRepository) Option {
	return func(s *OrderService) { s.addresses = repo }
}

func WithMetrics(m awspkg.MetricsRecorder) Option {
	return func(s *OrderService) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *OrderService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewOrderService(orderRepo repositories.OrderRepository, catalog VariantLookup, calc totals.Calculator, opts ...Option) *OrderService {
	s := &OrderService{
		orderRepo: orderRepo,
		catalog:   catalog,
		calc:      calc,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder prices the requested lines against the catalog and persists
// the order. A repeat call with the same idempotency key returns the order
// created the first time.
func (s *OrderService) CreateOrder(ctx context.Context, userID, idempotencyKey, fingerprint string, req *CreateOrderRequest) (*CreatedOrder, *ServiceError) {
	lines, svcErr := mergeLines(req)
	if svcErr != nil {
		return nil, svcErr
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	} else if existing, svcErr := s.findReplay(ctx, userID, idempotencyKey); svcErr != nil || existing != nil {
		return existing, svcErr
	}
	shipping, svcErr := s.shippingFor(ctx, userID, req.AddressID)
	if svcErr != nil {
		return nil, svcErr
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.VariantID)
	}
	variants, err := s.catalog.Variants(ctx, ids)
	if err != nil {
		s.logger.Error("Catalog lookup failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Catalog unavailable"}
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fingerprint,
		Status:         models.StatusCreated,
		Currency:       defaultCurrency,
		Shipping:       shipping,
	}
	priced := make([]cartmodels.CartItem, 0, len(lines))
	for _, l := range lines {
		v, ok := variants[l.VariantID]
		if !ok {
			return nil, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: fmt.Sprintf("variant %d not found", l.VariantID)}
		}
		if v.Stock < l.Qty {
			return nil, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: fmt.Sprintf("variant %d out of stock", l.VariantID)}
		}
		priced = append(priced, cartmodels.CartItem{VariantID: v.VariantID, Name: v.Name, UnitPriceMinor: v.PriceMinor, Qty: l.Qty})
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			OrderID:        order.ID,
			VariantID:      v.VariantID,
			ProductSlug:    v.ProductSlug,
			Name:           v.Name,
			UnitPriceMinor: v.PriceMinor,
			Qty:            l.Qty,
		})
	}

	t := s.calc.CalculateItems(priced)
	order.SubtotalMinor = t.SubtotalMinor
	order.ShippingMinor = t.ShippingMinor
	order.TaxMinor = t.TaxMinor
	order.TotalMinor = t.TotalMinor

	superseded, err := s.orderRepo.PlaceOrder(ctx, order)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request with the same key won the insert.
		existing, svcErr := s.findReplay(ctx, userID, idempotencyKey)
		if svcErr == nil && existing == nil {
			svcErr = &ServiceError{StatusCode: http.StatusConflict, Message: "Duplicate order request"}
		}
		return existing, svcErr
	}
	if err != nil {
		s.logger.Error("Failed to persist order", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create order"}
	}

	log := s.logger.With(zap.String("order_id", order.ID.String()), zap.String("user_id", userID))
	s.count(ctx, awspkg.MetricOrdersCreated)
	for _, id := range superseded {
		s.count(ctx, awspkg.MetricOrdersSuperseded)
		log.Info("Order superseded by newer checkout", zap.String("superseded_order_id", id.String()))
	}
	s.publishCreated(ctx, order, superseded)
	log.Info("Order created", zap.Int64("total_minor", order.TotalMinor), zap.Int("items", len(order.OrderItems)))

	return toCreated(order, false), nil
}

// GetUserOrders retrieves paginated orders for a specific user
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.orderRepo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Failed to fetch orders",
		}
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetOrderByID retrieves a specific order for a user
func (s *OrderService) GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByIDAndUserID(ctx, orderID, userID)
	return s.orderOrError(orderID, order, err)
}

// GetOrder reads any order; it backs the service-to-service endpoint.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	return s.orderOrError(orderID, order, err)
}

func (s *OrderService) orderOrError(orderID uuid.UUID, order *models.Order, err error) (*models.Order, *ServiceError) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to fetch order"}
	}
	return order, nil
}

// ApplyPaymentEvent moves an order along its lifecycle. Events that do not
// fit the order's current status are logged and dropped. Only storage
// failures are returned, so that the message is redelivered.
func (s *OrderService) ApplyPaymentEvent(ctx context.Context, evt models.PaymentEvent) error {
	log := s.logger.With(zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))

	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		log.Warn("Payment event with invalid order id")
		return nil
	}

	at := evt.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	change := repositories.StatusChange{At: at}
	switch evt.Type {
	case models.EventPaymentOrderCreated:
		change.To = models.StatusPaymentPending
	case models.EventPaymentSucceeded:
		change.To = models.StatusPaid
		change.PaymentID = evt.PaymentID
	case models.EventPaymentFailed:
		change.To = models.StatusFailed
		change.Reason = evt.Reason
		if change.Reason == "" {
			change.Reason = evt.Type
		}
	default:
		log.Warn("Unknown payment event type")
		return nil
	}

	order, applied, err := s.orderRepo.ApplyStatus(ctx, orderID, change)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Payment event for unknown order")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %s to order %s: %w", evt.Type, evt.OrderID, err)
	}
	if !applied {
		log.Info("Payment event ignored", zap.String("status", order.Status))
		return nil
	}

	if change.To == models.StatusPaid {
		s.count(ctx, awspkg.MetricOrdersPaid)
	}
	log.Info("Order status updated", zap.String("status", change.To))
	return nil
}

func (s *OrderService) findReplay(ctx context.Context, userID, key string) (*CreatedOrder, *ServiceError) {
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Idempotency lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create order"}
	}
	s.logger.Info("Replaying order for idempotency key", zap.String("order_id", existing.ID.String()))
	return toCreated(existing, true), nil
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order, superseded []uuid.UUID) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}
	evt := models.OrderEvent{
		Type:       models.EventOrderCreated,
		OrderID:    order.ID.String(),
		UserID:     order.UserID,
		TotalMinor: order.TotalMinor,
		Currency:   order.Currency,
		Timestamp:  s.now(),
	}
	for _, id := range superseded {
		evt.Superseded = append(evt.Superseded, id.String())
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	// Best-effort: the order exists whether or not the event goes out.
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, body); err != nil {
		s.logger.Warn("SNS publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
	}
}

func (s *OrderService) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "order-service"})
}

// mergeLines validates the request and folds repeated variants into one line,
// keeping first-seen order.
func mergeLines(req *CreateOrderRequest) ([]OrderItemRequest, *ServiceError) {
	if req == nil || len(req.Items) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "At least one item is required"}
	}

	index := make(map[int64]int, len(req.Items))
	lines := make([]OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		if it.VariantID <= 0 {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "variantId must be positive"}
		}
		if it.Qty < 1 {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("variant %d: qty must be at least 1", it.VariantID)}
		}
		if i, ok := index[it.VariantID]; ok {
			lines[i].Qty += it.Qty
			continue
		}
		index[it.VariantID] = len(lines)
		lines = append(lines, it)
	}
	return lines, nil
}

func toCreated(o *models.Order, replayed bool) *CreatedOrder {
	return &CreatedOrder{
		ID:            o.ID.String(),
		SubtotalMinor: o.SubtotalMinor,
		ShippingMinor: o.ShippingMinor,
		TaxMinor:      o.TaxMinor,
		TotalMinor:    o.TotalMinor,
		Currency:      o.Currency,
		Status:        o.Status,
		Replayed:      replayed,
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yashrajoria/storefront/services/payment-service/models"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, gatewayPaymentID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
	ListEventPending(ctx context.Context, limit int) ([]models.Payment, error)
	ClearEventPending(ctx context.Context, id uuid.UUID) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormPaymentRepo) GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkSucceeded moves a created payment to succeeded. It reports false when
// the payment was already terminal.
func (r *gormPaymentRepo) MarkSucceeded(ctx context.Context, id uuid.UUID, gatewayPaymentID string, at time.Time) (bool, error) {
	return r.finalize(ctx, id, map[string]interface{}{
		"status":             models.StatusSucceeded,
		"gateway_payment_id": gatewayPaymentID,
		"succeeded_at":       at,
		"event_pending":      true,
	})
}

// MarkFailed moves a created payment to failed. It reports false when the
// payment was already terminal.
func (r *gormPaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	return r.finalize(ctx, id, map[string]interface{}{
		"status":         models.StatusFailed,
		"failure_reason": reason,
		"failed_at":      at,
		"event_pending":  true,
	})
}

// finalize is a conditional update; terminal rows never match.
func (r *gormPaymentRepo) finalize(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.StatusCreated).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListEventPending returns terminal payments whose event has not been
// published yet, oldest first.
func (r *gormPaymentRepo) ListEventPending(ctx context.Context, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("event_pending = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *gormPaymentRepo) ClearEventPending(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("event_pending", false).Error
}

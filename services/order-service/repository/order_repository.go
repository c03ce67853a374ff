package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yashrajoria/storefront/services/order-service/models"
)

// StatusChange describes what a payment event does to an order.
type StatusChange struct {
	To        string
	PaymentID string
	Reason    string
	At        time.Time
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error)
	PlaceOrder(ctx context.Context, order *models.Order) ([]uuid.UUID, error)
	ApplyStatus(ctx context.Context, orderID uuid.UUID, change StatusChange) (*models.Order, bool, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByUserID retrieves orders for a specific user with pagination
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDAndUserID retrieves a specific order for a user
func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	var order models.Order

	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// FindByIdempotencyKey returns the order an earlier request with the same key created.
func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceOrder inserts the order with its items. In the same transaction, any
// open order of the user with the same cart fingerprint is failed as
// superseded. It returns the ids of the superseded orders.
func (r *GormOrderRepository) PlaceOrder(ctx context.Context, order *models.Order) ([]uuid.UUID, error) {
	var superseded []uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.Fingerprint != "" {
			if err := tx.Model(&models.Order{}).
				Where("user_id = ? AND fingerprint = ? AND status IN ?", order.UserID, order.Fingerprint,
					[]string{models.StatusCreated, models.StatusPaymentPending}).
				Pluck("id", &superseded).Error; err != nil {
				return err
			}
			if len(superseded) > 0 {
				now := time.Now().UTC()
				if err := tx.Model(&models.Order{}).
					Where("id IN ?", superseded).
					Updates(map[string]interface{}{
						"status":         models.StatusFailed,
						"failure_reason": models.FailureSuperseded,
						"failed_at":      now,
					}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

// ApplyStatus moves the order to change.To when the transition is allowed.
// The row is locked for the duration of the check. It reports false, with
// no error, when the change was not applied.
func (r *GormOrderRepository) ApplyStatus(ctx context.Context, orderID uuid.UUID, change StatusChange) (*models.Order, bool, error) {
	var order models.Order
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		if !models.CanTransition(order.Status, change.To) {
			return nil
		}

		fields := map[string]interface{}{"status": change.To}
		switch change.To {
		case models.StatusPaid:
			fields["paid_at"] = change.At
			fields["payment_id"] = change.PaymentID
			fields["failure_reason"] = ""
		case models.StatusFailed:
			fields["failed_at"] = change.At
			fields["failure_reason"] = change.Reason
		}
		if err := tx.Model(&order).Updates(fields).Error; err != nil {
			return err
		}
		order.Status = change.To
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &order, applied, nil
}

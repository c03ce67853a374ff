package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses. succeeded and failed are terminal.
const (
	StatusCreated   = "created"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Payment is one gateway order. EventPending is set when the payment turns
// terminal and cleared once its event has been published.
type Payment struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          string         `gorm:"type:varchar(64);index;not null" json:"orderId"`
	UserID           string         `gorm:"type:varchar(64);index" json:"userId,omitempty"`
	Provider         string         `gorm:"type:varchar(20);not null" json:"provider"`
	GatewayOrderID   string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"gatewayOrderId"`
	GatewayPaymentID *string        `gorm:"type:varchar(128);uniqueIndex" json:"gatewayPaymentId,omitempty"`
	AmountMinor      int64          `gorm:"not null" json:"amountMinor"`
	Currency         string         `gorm:"type:varchar(3);not null" json:"currency"`
	Status           string         `gorm:"type:varchar(20);not null" json:"status"`
	FailureReason    string         `gorm:"type:varchar(255)" json:"failureReason,omitempty"`
	SucceededAt      *time.Time     `json:"succeededAt,omitempty"`
	FailedAt         *time.Time     `json:"failedAt,omitempty"`
	EventPending     bool           `gorm:"not null;default:false;index" json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal reports whether the payment can no longer change.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSucceeded || p.Status == StatusFailed
}

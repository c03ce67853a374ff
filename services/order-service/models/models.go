package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses.
const (
	StatusCreated        = "created"
	StatusPaymentPending = "payment_pending"
	StatusPaid           = "paid"
	StatusFailed         = "failed"
)

// FailureSuperseded marks an order replaced by a newer checkout of the same cart.
const FailureSuperseded = "superseded"

type Order struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_orders_user_idem" json:"userId"`
	IdempotencyKey string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_user_idem" json:"-"`
	Fingerprint    string         `gorm:"type:varchar(64);index" json:"fingerprint,omitempty"`
	Status         string         `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	SubtotalMinor  int64          `gorm:"not null" json:"subtotalMinor"`
	ShippingMinor  int64          `gorm:"not null" json:"shippingMinor"`
	TaxMinor       int64          `gorm:"not null" json:"taxMinor"`
	TotalMinor     int64          `gorm:"not null" json:"totalMinor"`
	Currency       string         `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	PaymentID      string         `gorm:"type:varchar(64)" json:"paymentId,omitempty"`
	FailureReason  string         `gorm:"type:varchar(64)" json:"failureReason,omitempty"`
	PaidAt         *time.Time     `json:"paidAt,omitempty"`
	FailedAt       *time.Time     `json:"failedAt,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems     []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping"`
}

// OrderItem is a price snapshot taken when the order was placed.
type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	VariantID      int64     `gorm:"not null" json:"variantId"`
	ProductSlug    string    `gorm:"type:varchar(128)" json:"productSlug"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceMinor int64     `gorm:"not null" json:"unitPriceMinor"`
	Qty            int       `gorm:"not null" json:"qty"`
}

// canMove lists the status changes payment events may cause.
var canMove = map[string]map[string]bool{
	StatusCreated:        {StatusPaymentPending: true, StatusPaid: true, StatusFailed: true},
	StatusPaymentPending: {StatusPaid: true, StatusFailed: true},
	// A late success against a superseded order still has to be recorded.
	StatusFailed: {StatusPaid: true},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	return canMove[from][to]
}

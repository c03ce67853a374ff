package models

import "time"

const (
	EventPaymentOrderCreated = "payment_order_created"
	EventPaymentSucceeded    = "payment_succeeded"
	EventPaymentFailed       = "payment_failed"
)

// PaymentEvent is published to SNS; order-service consumes it from SQS.
type PaymentEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id,omitempty"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"`
	PaymentID      string    `json:"payment_id,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// VerificationRecord is the audit document archived for every verified payment.
type VerificationRecord struct {
	PaymentID        string    `json:"payment_id"`
	OrderID          string    `json:"order_id"`
	Provider         string    `json:"provider"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	VerifiedAt       time.Time `json:"verified_at"`
}

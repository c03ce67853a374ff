package models

import "time"

// Event types published on the order and payment topics.
const (
	EventOrderCreated        = "order_created"
	EventPaymentOrderCreated = "payment_order_created"
	EventPaymentSucceeded    = "payment_succeeded"
	EventPaymentFailed       = "payment_failed"
)

// OrderEvent is published by order-service when an order is placed.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	TotalMinor int64     `json:"total_minor"`
	Currency   string    `json:"currency"`
	Superseded []string  `json:"superseded,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentEvent is published by payment-service.
type PaymentEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id,omitempty"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"`
	PaymentID      string    `json:"payment_id,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

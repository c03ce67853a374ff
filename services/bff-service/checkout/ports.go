package checkout

import (
	"context"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

// CartStore is the owner-bound cart seen by the orchestrator.
type CartStore interface {
	GetCart(ctx context.Context) (models.Cart, error)
	ClearCart(ctx context.Context) error
}

// OrderRef is the client's read-only view of a server order.
type OrderRef struct {
	ID         string `json:"id"`
	TotalMinor int64  `json:"totalMinor"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
}

// OrderSubmitter turns a cart snapshot into a server-priced order. Only
// variant ids and quantities are sent. attemptKey makes the call idempotent.
type OrderSubmitter interface {
	Submit(ctx context.Context, owner, attemptKey, fingerprint string, items []models.CartItem) (*OrderRef, error)
}

// WidgetConfig is handed to the browser to open the payment widget.
type WidgetConfig struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	OrderID     string            `json:"orderId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Prefill     map[string]string `json:"prefill,omitempty"`
}

// PaymentIntent is a gateway-side order bound to one server order.
type PaymentIntent struct {
	GatewayOrderID string        `json:"gatewayOrderId"`
	OrderID        string        `json:"orderId"`
	AmountMinor    int64         `json:"amountMinor"`
	Currency       string        `json:"currency"`
	Status         string        `json:"status"`
	Widget         *WidgetConfig `json:"widget,omitempty"`
}

// PaymentProof is what the widget hands back on success.
type PaymentProof struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

// CollectKind is how a widget session ended.
type CollectKind string

const (
	CollectSuccess   CollectKind = "success"
	CollectCancelled CollectKind = "cancelled"
	CollectError     CollectKind = "error"
)

// CollectResult is the single resolution of a widget session.
type CollectResult struct {
	Kind   CollectKind
	Proof  PaymentProof
	Reason string
}

// PaymentGateway creates payment intents and collects payment from the shopper.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, orderID string, amountMinor int64, currency string) (*PaymentIntent, error)
	// Collect blocks until the widget resolves or ctx is done, in which case
	// it returns ctx.Err().
	Collect(ctx context.Context, intent *PaymentIntent) (*CollectResult, error)
}

// VerifiedPayment is the server's confirmation of a genuine payment.
type VerifiedPayment struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
}

// PaymentVerifier checks a proof server-side and finalizes the order.
type PaymentVerifier interface {
	Verify(ctx context.Context, orderID string, proof PaymentProof) (*VerifiedPayment, error)
}

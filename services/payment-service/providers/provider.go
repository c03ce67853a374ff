package providers

import "context"

// GatewayOrder is the provider-side object a shopper pays against.
type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
	// ClientSecret is set by providers whose client SDK needs it (Stripe).
	ClientSecret string
}

// Proof is what the checkout widget hands back after a payment.
type Proof struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// PaymentProvider defines what every gateway integration must implement.
type PaymentProvider interface {
	Name() string

	// CreateOrder registers a payable amount with the gateway.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error)

	// VerifyPayment reports whether proof shows a completed payment of
	// expectedAmount. A false result with a nil error is a rejected proof.
	VerifyPayment(ctx context.Context, proof Proof, expectedAmount int64) (bool, error)
}

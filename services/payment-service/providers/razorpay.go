package providers

import (
	"context"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// RazorpayProvider implements PaymentProvider using the Razorpay Orders API.
type RazorpayProvider struct {
	client    *razorpay.Client
	keySecret string
}

// NewRazorpayProvider creates a new RazorpayProvider. An empty baseURL
// selects the live API.
func NewRazorpayProvider(keyID, keySecret, baseURL string) *RazorpayProvider {
	client := razorpay.NewClient(keyID, keySecret)
	if baseURL != "" {
		client.Order.Request.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &RazorpayProvider{client: client, keySecret: keySecret}
}

func (r *RazorpayProvider) Name() string { return "razorpay" }

// CreateOrder creates a Razorpay order. Receipts longer than Razorpay's 40
// character limit are truncated. The SDK has no context support, so a
// cancelled ctx is only honoured before the call.
func (r *RazorpayProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("razorpay CreateOrder: %w", err)
	}
	if len(receipt) > 40 {
		receipt = receipt[:40]
	}
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": strings.ToUpper(currency),
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay CreateOrder: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay CreateOrder: response has no order id")
	}
	order := &GatewayOrder{ID: id, AmountMinor: amountMinor}
	if amount, ok := body["amount"].(float64); ok {
		order.AmountMinor = int64(amount)
	}
	order.Currency, _ = body["currency"].(string)
	order.Status, _ = body["status"].(string)
	return order, nil
}

// VerifyPayment checks the checkout signature, which Razorpay computes as
// hex(HMAC-SHA256(key_secret, order_id + "|" + payment_id)). The amount is
// bound by the order id and needs no separate check.
func (r *RazorpayProvider) VerifyPayment(ctx context.Context, proof Proof, expectedAmount int64) (bool, error) {
	if proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" || proof.Signature == "" {
		return false, nil
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   proof.GatewayOrderID,
		"razorpay_payment_id": proof.GatewayPaymentID,
	}, proof.Signature, r.keySecret), nil
}

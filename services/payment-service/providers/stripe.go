package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeProvider implements PaymentProvider with Stripe PaymentIntents.
type StripeProvider struct {
	intents    *paymentintent.Client
	webhookKey string
}

// NewStripeProvider creates a StripeProvider. A nil backend selects the
// live Stripe API.
func NewStripeProvider(secretKey, webhookKey string, backend stripe.Backend) *StripeProvider {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeProvider{
		intents:    &paymentintent.Client{B: backend, Key: secretKey},
		webhookKey: webhookKey,
	}
}

func (s *StripeProvider) Name() string { return "stripe" }

func (s *StripeProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", receipt)
	params.SetIdempotencyKey("pi-" + receipt)

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe CreateOrder: %w", err)
	}
	return &GatewayOrder{
		ID:           pi.ID,
		AmountMinor:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// VerifyPayment retrieves the PaymentIntent and requires it to have
// succeeded for exactly the expected amount.
func (s *StripeProvider) VerifyPayment(ctx context.Context, proof Proof, expectedAmount int64) (bool, error) {
	if proof.GatewayOrderID == "" {
		return false, nil
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(proof.GatewayOrderID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("stripe VerifyPayment: %w", err)
	}

	return pi.ID == proof.GatewayOrderID &&
		pi.Status == stripe.PaymentIntentStatusSucceeded &&
		pi.Amount == expectedAmount, nil
}

// ParseWebhook checks the Stripe-Signature header and decodes the event.
// Events from endpoints pinned to another API version are still accepted.
func (s *StripeProvider) ParseWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

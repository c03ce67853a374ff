// Package gateway connects checkout to the browser payment widget.
package gateway

import (
	"context"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
)

// IntentCreator asks the payment backend for a gateway order.
type IntentCreator interface {
	CreatePaymentOrder(ctx context.Context, owner, orderID string, amountMinor int64, currency string) (*checkout.PaymentIntent, error)
}

// WidgetOptions are the static parts of the widget configuration.
type WidgetOptions struct {
	Key         string
	Name        string
	Description string
}

// Adapter implements checkout.PaymentGateway for one shopper.
type Adapter struct {
	payments IntentCreator
	relay    *Relay
	owner    string
	opts     WidgetOptions
	prefill  map[string]string
}

func NewAdapter(payments IntentCreator, relay *Relay, owner string, opts WidgetOptions, prefill map[string]string) *Adapter {
	return &Adapter{payments: payments, relay: relay, owner: owner, opts: opts, prefill: prefill}
}

// CreateIntent creates the gateway order and opens its widget session, so
// callbacks that arrive before Collect starts waiting are not lost.
func (a *Adapter) CreateIntent(ctx context.Context, orderID string, amountMinor int64, currency string) (*checkout.PaymentIntent, error) {
	intent, err := a.payments.CreatePaymentOrder(ctx, a.owner, orderID, amountMinor, currency)
	if err != nil {
		return nil, err
	}
	if intent.GatewayOrderID == "" {
		return nil, &checkout.GatewayError{Reason: "payment backend returned no gateway order id"}
	}
	if intent.OrderID == "" {
		intent.OrderID = orderID
	}
	intent.Widget = a.widgetConfig(intent)
	a.relay.Open(intent.GatewayOrderID, a.owner)
	return intent, nil
}

// Collect waits for the widget session of intent to resolve.
func (a *Adapter) Collect(ctx context.Context, intent *checkout.PaymentIntent) (*checkout.CollectResult, error) {
	s := a.relay.Open(intent.GatewayOrderID, a.owner)
	defer a.relay.Close(s)

	select {
	case <-s.Done():
		result := s.Result()
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) widgetConfig(intent *checkout.PaymentIntent) *checkout.WidgetConfig {
	return &checkout.WidgetConfig{
		Key:         a.opts.Key,
		Amount:      intent.AmountMinor,
		Currency:    intent.Currency,
		OrderID:     intent.GatewayOrderID,
		Name:        a.opts.Name,
		Description: a.opts.Description,
		Prefill:     a.prefill,
	}
}

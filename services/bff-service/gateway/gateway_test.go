package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
)

type stubPayments struct {
	intent *checkout.PaymentIntent
	err    error
	owner  string
}

func (s *stubPayments) CreatePaymentOrder(ctx context.Context, owner, orderID string, amountMinor int64, currency string) (*checkout.PaymentIntent, error) {
	s.owner = owner
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.intent
	return &cp, nil
}

func newTestAdapter(relay *Relay, owner string) *Adapter {
	payments := &stubPayments{intent: &checkout.PaymentIntent{GatewayOrderID: "order_rzp_9", AmountMinor: 57290, Currency: "INR", Status: "created"}}
	return NewAdapter(payments, relay, owner, WidgetOptions{Key: "rzp_test_key", Name: "Tea Store", Description: "Order payment"}, map[string]string{"email": "a@example.com"})
}

func TestSession_ResolvesOnce(t *testing.T) {
	s := newSession("order_1", "alice")

	var wg sync.WaitGroup
	wins := make(chan bool, 3)
	for _, fn := range []func() bool{
		func() bool { return s.OnSuccess(checkout.PaymentProof{GatewayOrderID: "order_1"}) },
		s.OnDismiss,
		func() bool { return s.OnError("boom") },
	} {
		wg.Add(1)
		go func(fn func() bool) {
			defer wg.Done()
			wins <- fn()
		}(fn)
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.False(t, s.OnDismiss())
}

func TestRelay_OwnerScoping(t *testing.T) {
	r := NewRelay()
	r.Open("order_1", "alice")

	assert.ErrorIs(t, r.Dismiss("order_1", "mallory"), ErrSessionNotFound)
	assert.ErrorIs(t, r.Dismiss("order_2", "alice"), ErrSessionNotFound)
	assert.NoError(t, r.Dismiss("order_1", "alice"))
	assert.ErrorIs(t, r.Fail("order_1", "alice", "late"), ErrAlreadyResolved)
}

func TestRelay_ProofMustMatchOrder(t *testing.T) {
	r := NewRelay()
	r.Open("order_1", "alice")

	err := r.Success("order_1", "alice", checkout.PaymentProof{GatewayOrderID: "order_other"})
	assert.ErrorIs(t, err, ErrProofMismatch)
}

func TestAdapter_CreateIntentBuildsWidget(t *testing.T) {
	relay := NewRelay()
	a := newTestAdapter(relay, "alice")

	intent, err := a.CreateIntent(context.Background(), "ord-1", 57290, "INR")
	require.NoError(t, err)
	require.NotNil(t, intent.Widget)
	assert.Equal(t, "ord-1", intent.OrderID)
	assert.Equal(t, checkout.WidgetConfig{
		Key: "rzp_test_key", Amount: 57290, Currency: "INR", OrderID: "order_rzp_9",
		Name: "Tea Store", Description: "Order payment", Prefill: map[string]string{"email": "a@example.com"},
	}, *intent.Widget)

	_, err = relay.Lookup("order_rzp_9", "alice")
	assert.NoError(t, err)
}

func TestAdapter_CreateIntentError(t *testing.T) {
	payments := &stubPayments{err: &checkout.GatewayError{Reason: "down"}}
	a := NewAdapter(payments, NewRelay(), "alice", WidgetOptions{}, nil)

	_, err := a.CreateIntent(context.Background(), "ord-1", 100, "INR")
	assert.Equal(t, checkout.KindGateway, checkout.Kind(err))
	assert.Equal(t, "alice", payments.owner)
}

func TestAdapter_CollectSuccessArrivingEarly(t *testing.T) {
	relay := NewRelay()
	a := newTestAdapter(relay, "alice")
	intent, err := a.CreateIntent(context.Background(), "ord-1", 57290, "INR")
	require.NoError(t, err)

	proof := checkout.PaymentProof{GatewayOrderID: "order_rzp_9", GatewayPaymentID: "pay_1", Signature: "abc"}
	require.NoError(t, relay.Success("order_rzp_9", "alice", proof))

	result, err := a.Collect(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, checkout.CollectSuccess, result.Kind)
	assert.Equal(t, proof, result.Proof)

	_, err = relay.Lookup("order_rzp_9", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAdapter_CollectWaitsForCallback(t *testing.T) {
	relay := NewRelay()
	a := newTestAdapter(relay, "alice")
	intent, err := a.CreateIntent(context.Background(), "ord-1", 57290, "INR")
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = relay.Fail("order_rzp_9", "alice", "card declined")
	}()

	result, err := a.Collect(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, checkout.CollectError, result.Kind)
	assert.Equal(t, "card declined", result.Reason)
}

func TestAdapter_CollectCancelledContext(t *testing.T) {
	relay := NewRelay()
	a := newTestAdapter(relay, "alice")
	intent, err := a.CreateIntent(context.Background(), "ord-1", 57290, "INR")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = a.Collect(ctx, intent)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	_, err = relay.Lookup("order_rzp_9", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

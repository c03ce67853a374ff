package providers_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"

	"github.com/yashrajoria/storefront/services/payment-service/providers"
)

func newStripeProvider(t *testing.T, handler http.HandlerFunc) *providers.StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return providers.NewStripeProvider("sk_test_123", "whsec_test", backend)
}

func TestStripeCreateOrder(t *testing.T) {
	p := newStripeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "pi-ord-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "57290", r.PostForm.Get("amount"))
		assert.Equal(t, "inr", r.PostForm.Get("currency"))
		assert.Equal(t, "ord-1", r.PostForm.Get("metadata[receipt]"))
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":57290,"currency":"inr","status":"requires_payment_method","client_secret":"pi_1_secret"}`))
	})

	order, err := p.CreateOrder(context.Background(), 57290, "INR", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", order.ID)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "pi_1_secret", order.ClientSecret)
}

func TestStripeVerifyPayment(t *testing.T) {
	p := newStripeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_intents/pi_ok":
			_, _ = w.Write([]byte(`{"id":"pi_ok","object":"payment_intent","amount":57290,"currency":"inr","status":"succeeded"}`))
		case "/v1/payment_intents/pi_pending":
			_, _ = w.Write([]byte(`{"id":"pi_pending","object":"payment_intent","amount":57290,"currency":"inr","status":"processing"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
		}
	})
	ctx := context.Background()

	ok, err := p.VerifyPayment(ctx, providers.Proof{GatewayOrderID: "pi_ok"}, 57290)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.VerifyPayment(ctx, providers.Proof{GatewayOrderID: "pi_ok"}, 100)
	require.NoError(t, err)
	assert.False(t, ok, "amount mismatch")

	ok, err = p.VerifyPayment(ctx, providers.Proof{GatewayOrderID: "pi_pending"}, 57290)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.VerifyPayment(ctx, providers.Proof{GatewayOrderID: "pi_missing"}, 57290)
	require.NoError(t, err)
	assert.False(t, ok)
}

// signStripePayload builds a Stripe-Signature header for payload.
func signStripePayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeParseWebhook(t *testing.T) {
	p := providers.NewStripeProvider("sk_test_123", "whsec_test", nil)
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":"payment_intent.succeeded","data":{"object":{"id":"pi_ok","object":"payment_intent"}}}`)

	event, err := p.ParseWebhook(payload, signStripePayload("whsec_test", payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventTypePaymentIntentSucceeded, event.Type)

	_, err = p.ParseWebhook(payload, signStripePayload("whsec_other", payload))
	assert.Error(t, err)
}

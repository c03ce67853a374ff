package providers_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/payment-service/providers"
)

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 57290, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Len(t, body["receipt"], 40)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_Nx1","amount":57290,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	p := providers.NewRazorpayProvider("rzp_test_key", "secret", srv.URL)
	receipt := "6f1c2a4e-9b7d-4c55-8a01-3e2f7d9c1b44-extra"
	order, err := p.CreateOrder(context.Background(), 57290, "inr", receipt)
	require.NoError(t, err)
	assert.Equal(t, "order_Nx1", order.ID)
	assert.Equal(t, int64(57290), order.AmountMinor)
	assert.Equal(t, "created", order.Status)
}

func TestRazorpayCreateOrder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	p := providers.NewRazorpayProvider("k", "s", srv.URL)
	_, err := p.CreateOrder(context.Background(), 1, "INR", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestRazorpayVerifyPayment(t *testing.T) {
	p := providers.NewRazorpayProvider("k", "secret", "")
	good := checkoutSignature("secret", "order_Nx1", "pay_9")

	tests := []struct {
		name  string
		proof providers.Proof
		want  bool
	}{
		{"valid", providers.Proof{GatewayOrderID: "order_Nx1", GatewayPaymentID: "pay_9", Signature: good}, true},
		{"other payment", providers.Proof{GatewayOrderID: "order_Nx1", GatewayPaymentID: "pay_10", Signature: good}, false},
		{"other order", providers.Proof{GatewayOrderID: "order_Nx2", GatewayPaymentID: "pay_9", Signature: good}, false},
		{"not hex", providers.Proof{GatewayOrderID: "order_Nx1", GatewayPaymentID: "pay_9", Signature: "zz"}, false},
		{"empty signature", providers.Proof{GatewayOrderID: "order_Nx1", GatewayPaymentID: "pay_9"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.VerifyPayment(context.Background(), tt.proof, 57290)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRazorpayCreateOrder_CancelledContext(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := providers.NewRazorpayProvider("k", "s", srv.URL).CreateOrder(ctx, 100, "INR", "r1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// checkoutSignature signs the way Razorpay Checkout does.
func checkoutSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
)

// PaymentClient talks to payment-service.
type PaymentClient struct {
	svc *ServiceClient
}

func NewPaymentClient(svc *ServiceClient) *PaymentClient {
	return &PaymentClient{svc: svc}
}

// CreatePaymentOrder asks payment-service for a gateway order covering
// amountMinor on behalf of owner.
func (c *PaymentClient) CreatePaymentOrder(ctx context.Context, owner, orderID string, amountMinor int64, currency string) (*checkout.PaymentIntent, error) {
	req := map[string]interface{}{
		"amountMinor": amountMinor,
		"currency":    currency,
		"receipt":     orderID,
	}
	reply, err := c.svc.doJSON(ctx, http.MethodPost, "/payments/order", ownerHeader(owner), req)
	if err != nil {
		return nil, &checkout.NetworkError{Op: "create payment order", Err: err}
	}
	if !reply.ok() {
		return nil, &checkout.GatewayError{Reason: fmt.Sprintf("payment-service status %d: %s", reply.status, reply.message())}
	}

	var intent checkout.PaymentIntent
	if err := reply.decode(&intent); err != nil {
		return nil, &checkout.GatewayError{Reason: "malformed payment order response", Err: err}
	}
	intent.OrderID = orderID
	intent.Status = "created"
	return &intent, nil
}

type verifyRequest struct {
	OrderID string `json:"orderId"`
	checkout.PaymentProof
}

type verifyResponse struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Error     string `json:"error"`
}

// Verify submits the widget proof for server-side verification.
func (c *PaymentClient) Verify(ctx context.Context, orderID string, proof checkout.PaymentProof) (*checkout.VerifiedPayment, error) {
	reply, err := c.svc.doJSON(ctx, http.MethodPost, "/payments/verify", nil, verifyRequest{OrderID: orderID, PaymentProof: proof})
	if err != nil {
		return nil, &checkout.NetworkError{Op: "verify payment", Err: err}
	}

	mismatch := &checkout.SignatureMismatchError{OrderID: orderID, GatewayOrderID: proof.GatewayOrderID}
	switch {
	case reply.status >= 500:
		return nil, &checkout.NetworkError{Op: "verify payment", Err: fmt.Errorf("payment-service status %d: %s", reply.status, reply.message())}
	case reply.status == http.StatusBadRequest:
		return nil, mismatch
	case reply.status >= 400:
		return nil, &checkout.GatewayError{Reason: fmt.Sprintf("payment-service status %d: %s", reply.status, reply.message())}
	}

	var resp verifyResponse
	if err := reply.decode(&resp); err != nil {
		return nil, &checkout.NetworkError{Op: "verify payment", Err: fmt.Errorf("malformed verify response: %w", err)}
	}
	if !resp.Success {
		return nil, mismatch
	}
	if resp.OrderID == "" {
		resp.OrderID = orderID
	}
	return &checkout.VerifiedPayment{OrderID: resp.OrderID, PaymentID: resp.PaymentID}, nil
}

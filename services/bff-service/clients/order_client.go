package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
	"github.com/yashrajoria/storefront/services/cart-service/models"
)

type orderLine struct {
	VariantID int64 `json:"variantId"`
	Qty       int   `json:"qty"`
}

// OrderClient submits carts to order-service.
type OrderClient struct {
	svc *ServiceClient
}

func NewOrderClient(svc *ServiceClient) *OrderClient {
	return &OrderClient{svc: svc}
}

// Submit sends variant ids and quantities only. The server prices the order.
func (c *OrderClient) Submit(ctx context.Context, owner, attemptKey, fingerprint string, items []models.CartItem) (*checkout.OrderRef, error) {
	lines := make([]orderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, orderLine{VariantID: it.VariantID, Qty: it.Qty})
	}

	headers := ownerHeader(owner)
	headers.Set("Idempotency-Key", attemptKey)
	headers.Set("X-Cart-Fingerprint", fingerprint)

	reply, err := c.svc.doJSON(ctx, http.MethodPost, "/orders", headers, map[string]interface{}{"items": lines})
	if err != nil {
		return nil, &checkout.NetworkError{Op: "submit order", Err: err}
	}

	switch {
	case reply.status >= 500:
		return nil, &checkout.NetworkError{Op: "submit order", Err: fmt.Errorf("order-service status %d: %s", reply.status, reply.message())}
	case reply.status >= 400:
		return nil, &checkout.OrderCreationError{StatusCode: reply.status, Message: reply.message()}
	}

	var ref checkout.OrderRef
	if err := reply.decode(&ref); err != nil || ref.ID == "" {
		return nil, &checkout.NetworkError{Op: "submit order", Err: fmt.Errorf("malformed order response: %v", err)}
	}
	return &ref, nil
}

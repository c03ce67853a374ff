package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

// CartClient reads and clears carts held by cart-service.
type CartClient struct {
	svc *ServiceClient
}

func NewCartClient(svc *ServiceClient) *CartClient {
	return &CartClient{svc: svc}
}

// For binds the client to one shopper.
func (c *CartClient) For(owner string) *OwnerCart {
	return &OwnerCart{svc: c.svc, owner: owner}
}

// OwnerCart is one shopper's remote cart.
type OwnerCart struct {
	svc   *ServiceClient
	owner string
}

func (o *OwnerCart) GetCart(ctx context.Context) (models.Cart, error) {
	reply, err := o.svc.doJSON(ctx, http.MethodGet, "/cart", ownerHeader(o.owner), nil)
	if err != nil {
		return models.Cart{}, err
	}
	if !reply.ok() {
		return models.Cart{}, fmt.Errorf("cart-service: status %d: %s", reply.status, reply.message())
	}

	var payload struct {
		Items []models.CartItem `json:"items"`
	}
	if err := reply.decode(&payload); err != nil {
		return models.Cart{}, fmt.Errorf("cart-service: decode cart: %w", err)
	}
	return models.Cart{Items: payload.Items}, nil
}

func (o *OwnerCart) ClearCart(ctx context.Context) error {
	reply, err := o.svc.doJSON(ctx, http.MethodDelete, "/cart", ownerHeader(o.owner), nil)
	if err != nil {
		return err
	}
	if !reply.ok() {
		return fmt.Errorf("cart-service: status %d: %s", reply.status, reply.message())
	}
	return nil
}

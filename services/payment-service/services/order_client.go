package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrOrderNotFound is returned when order-service has no such order.
var ErrOrderNotFound = errors.New("order not found")

// OrderSummary is the part of an order payment-service checks amounts against.
type OrderSummary struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Status     string `json:"status"`
	TotalMinor int64  `json:"totalMinor"`
	Currency   string `json:"currency"`
}

// OrderReader fetches the authoritative order.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*OrderSummary, error)
}

// OrderClient reads orders through order-service's internal endpoint.
type OrderClient struct {
	baseURL string
	client  *http.Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *OrderClient) GetOrder(ctx context.Context, orderID string) (*OrderSummary, error) {
	endpoint := fmt.Sprintf("%s/internal/orders/%s", c.baseURL, url.PathEscape(orderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return nil, ErrOrderNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("order service returned %d", resp.StatusCode)
	}

	var order OrderSummary
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

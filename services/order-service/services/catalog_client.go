package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Variant is the catalog's current view of one purchasable variant.
type Variant struct {
	VariantID   int64  `json:"variantId"`
	ProductSlug string `json:"productSlug"`
	Name        string `json:"name"`
	PriceMinor  int64  `json:"priceMinor"`
	Stock       int    `json:"stock"`
}

// VariantLookup resolves variant ids against the catalog.
type VariantLookup interface {
	Variants(ctx context.Context, ids []int64) (map[int64]Variant, error)
}

// CatalogClient reads variants from product-service.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Variants returns the known variants keyed by id. Unknown ids are absent
// from the map.
func (c *CatalogClient) Variants(ctx context.Context, ids []int64) (map[int64]Variant, error) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	endpoint := fmt.Sprintf("%s/internal/variants?ids=%s", c.baseURL, url.QueryEscape(strings.Join(parts, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	var variants []Variant
	if err := json.NewDecoder(resp.Body).Decode(&variants); err != nil {
		return nil, err
	}

	out := make(map[int64]Variant, len(variants))
	for _, v := range variants {
		out[v.VariantID] = v
	}
	return out, nil
}

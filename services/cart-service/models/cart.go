package models

import "time"

// CartItem is one purchasable variant in the cart. Prices are minor units.
type CartItem struct {
	VariantID      int64  `json:"variantId" binding:"required,min=1"`
	Name           string `json:"name" binding:"required"`
	UnitPriceMinor int64  `json:"unitPriceMinor" binding:"min=0"`
	Qty            int    `json:"qty" binding:"required,min=1"`
	ProductSlug    string `json:"productSlug"`
}

// Cart is the ordered list of line items owned by one shopper.
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

// IsEmpty reports whether the cart has no line items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy, used to hand out snapshots that callers may mutate.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, UpdatedAt: c.UpdatedAt}
}

// Totals are derived from a cart on every read and never persisted.
type Totals struct {
	SubtotalMinor int64 `json:"subtotal"`
	ShippingMinor int64 `json:"shipping"`
	TaxMinor      int64 `json:"tax"`
	TotalMinor    int64 `json:"total"`
}

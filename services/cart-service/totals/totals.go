// Package totals derives display and charge amounts from a cart. All amounts
// are integer minor units; only the tax step goes through a decimal.
package totals

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront/services/cart-service/models"
)

const (
	DefaultFreeShippingThreshold int64 = 50000
	DefaultFlatShippingFee       int64 = 5000
)

var DefaultTaxRate = decimal.RequireFromString("0.05")

// Calculator holds the pricing policy.
type Calculator struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               decimal.Decimal
}

func Default() Calculator {
	return Calculator{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
		TaxRate:               DefaultTaxRate,
	}
}

// Environment variables read by FromEnv.
const (
	EnvFreeShippingThreshold = "FREE_SHIPPING_THRESHOLD_MINOR"
	EnvFlatShippingFee       = "FLAT_SHIPPING_FEE_MINOR"
	EnvTaxRate               = "TAX_RATE"
)

// FromEnv loads the pricing policy shared by cart-service and order-service.
// Unset variables keep their defaults; malformed or negative values are errors.
func FromEnv() (Calculator, error) {
	calc := Default()
	var err error
	if calc.FreeShippingThreshold, err = envMinor(EnvFreeShippingThreshold, calc.FreeShippingThreshold); err != nil {
		return Calculator{}, err
	}
	if calc.FlatShippingFee, err = envMinor(EnvFlatShippingFee, calc.FlatShippingFee); err != nil {
		return Calculator{}, err
	}
	if v := os.Getenv(EnvTaxRate); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() {
			return Calculator{}, fmt.Errorf("invalid %s %q", EnvTaxRate, v)
		}
		calc.TaxRate = rate
	}
	return calc, nil
}

func envMinor(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// Calculate is pure: the same cart always yields the same totals.
//
// Shipping is free for an empty cart and once the subtotal reaches the
// threshold. Tax applies to the subtotal only and is rounded half up.
func (c Calculator) Calculate(cart models.Cart) models.Totals {
	return c.CalculateItems(cart.Items)
}

// CalculateItems prices a bare line list; order-service uses it on snapshots.
func (c Calculator) CalculateItems(items []models.CartItem) models.Totals {
	if len(items) == 0 {
		return models.Totals{}
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceMinor * int64(it.Qty)
	}

	shipping := c.FlatShippingFee
	if subtotal >= c.FreeShippingThreshold {
		shipping = 0
	}

	// decimal.Round rounds half away from zero, which is half up for the
	// non-negative amounts seen here.
	tax := decimal.NewFromInt(subtotal).Mul(c.TaxRate).Round(0).IntPart()

	return models.Totals{
		SubtotalMinor: subtotal,
		ShippingMinor: shipping,
		TaxMinor:      tax,
		TotalMinor:    subtotal + shipping + tax,
	}
}

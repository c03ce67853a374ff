package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

// SchemaVersion is the version written into every persisted cart blob.
const SchemaVersion = 1

var errUnsupportedVersion = errors.New("unsupported cart schema version")

type envelope struct {
	Version   int               `json:"version"`
	Items     []models.CartItem `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Encode serializes the whole cart into a versioned blob.
func Encode(cart models.Cart) ([]byte, error) {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return json.Marshal(envelope{
		Version:   SchemaVersion,
		Items:     items,
		UpdatedAt: cart.UpdatedAt,
	})
}

// Decode parses a blob. An absent blob is an empty cart. A malformed,
// unversioned or future-version blob returns an empty cart together with the
// reason, which callers log and otherwise ignore.
func Decode(blob []byte) (models.Cart, error) {
	if len(blob) == 0 {
		return models.Cart{Items: []models.CartItem{}}, nil
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return models.Cart{Items: []models.CartItem{}}, fmt.Errorf("malformed cart blob: %w", err)
	}
	if env.Version != SchemaVersion {
		return models.Cart{Items: []models.CartItem{}}, fmt.Errorf("%w: %d", errUnsupportedVersion, env.Version)
	}

	return models.Cart{Items: normalize(env.Items), UpdatedAt: env.UpdatedAt}, nil
}

// normalize restores the cart invariants on data that did not come from this
// package: positive variant ids, qty >= 1, one entry per variant.
func normalize(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, it := range items {
		if it.VariantID <= 0 {
			continue
		}
		if it.Qty < 1 {
			it.Qty = 1
		}
		if i, ok := index[it.VariantID]; ok {
			out[i].Qty += it.Qty
			continue
		}
		index[it.VariantID] = len(out)
		out = append(out, it)
	}
	return out
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

func TestDecode_NormalizesHandEditedBlob(t *testing.T) {
	blob := []byte(`{"version":1,"items":[
		{"variantId":3,"name":"Darjeeling","unitPriceMinor":100,"qty":0},
		{"variantId":-1,"name":"bogus","qty":2},
		{"variantId":3,"name":"Darjeeling","unitPriceMinor":100,"qty":2},
		{"variantId":5,"name":"Nilgiri","unitPriceMinor":200,"qty":1}
	]}`)

	cart, err := Decode(blob)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(3), cart.Items[0].VariantID)
	assert.Equal(t, 3, cart.Items[0].Qty)
	assert.Equal(t, int64(5), cart.Items[1].VariantID)
}

func TestDecode_NilBlobIsEmptyWithoutError(t *testing.T) {
	cart, err := Decode(nil)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
}

func TestEncode_WritesVersion(t *testing.T) {
	blob, err := Encode(models.Cart{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[],"updated_at":"0001-01-01T00:00:00Z"}`, string(blob))
}

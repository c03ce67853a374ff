package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/cart-service/controllers"
	"github.com/yashrajoria/storefront/services/cart-service/routes"
	"github.com/yashrajoria/storefront/services/cart-service/store"
	"github.com/yashrajoria/storefront/services/cart-service/totals"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	c := controllers.NewCartController(store.NewRegistry(store.NewMemoryStorage(), nil), totals.Default())
	routes.RegisterCartRoutes(r, c)
	return r
}

func do(r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) controllers.CartResponse {
	t.Helper()
	var resp controllers.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCart_RequiresUser(t *testing.T) {
	r := setupRouter()
	w := do(r, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCart_AddUpdateRemove(t *testing.T) {
	r := setupRouter()
	item := map[string]any{"variantId": 11, "name": "Assam Gold", "unitPriceMinor": 24900, "qty": 2}

	w := do(r, http.MethodPost, "/cart/items", "alice", item)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCart(t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(57290), resp.Totals.TotalMinor)

	w = do(r, http.MethodPatch, "/cart/items/11", "alice", map[string]int{"qty": 3})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeCart(t, w)
	assert.Equal(t, 3, resp.Items[0].Qty)
	assert.Equal(t, int64(78435), resp.Totals.TotalMinor)

	w = do(r, http.MethodGet, "/cart/totals", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subtotal":74700,"shipping":0,"tax":3735,"total":78435}`, w.Body.String())

	w = do(r, http.MethodDelete, "/cart/items/11", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)
}

func TestCart_ClearAndIsolation(t *testing.T) {
	r := setupRouter()
	item := map[string]any{"variantId": 11, "name": "Assam Gold", "unitPriceMinor": 100, "qty": 1}
	do(r, http.MethodPost, "/cart/items", "alice", item)
	do(r, http.MethodPost, "/cart/items", "bob", item)

	w := do(r, http.MethodDelete, "/cart", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, decodeCart(t, do(r, http.MethodGet, "/cart", "alice", nil)).Items)
	assert.Len(t, decodeCart(t, do(r, http.MethodGet, "/cart", "bob", nil)).Items, 1)
}

func TestCart_BadInput(t *testing.T) {
	r := setupRouter()

	w := do(r, http.MethodPost, "/cart/items", "alice", map[string]any{"variantId": 0, "name": "x", "qty": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/cart/items/abc", "alice", map[string]int{"qty": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

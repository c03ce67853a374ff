package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yashrajoria/storefront/services/cart-service/totals"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
	"github.com/yashrajoria/storefront/services/order-service/models"
	repositories "github.com/yashrajoria/storefront/services/order-service/repository"
	"github.com/yashrajoria/storefront/services/order-service/routes"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

type stubRepo struct {
	orders []*models.Order
}

func (r *stubRepo) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) FindByIDAndUserID(ctx context.Context, id uuid.UUID, userID string) (*models.Order, error) {
	o, err := r.FindByID(ctx, id)
	if err != nil || o.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) PlaceOrder(ctx context.Context, order *models.Order) ([]uuid.UUID, error) {
	r.orders = append(r.orders, order)
	return nil, nil
}

func (r *stubRepo) ApplyStatus(ctx context.Context, id uuid.UUID, change repositories.StatusChange) (*models.Order, bool, error) {
	return nil, false, gorm.ErrRecordNotFound
}

type stubCatalog struct{}

func (stubCatalog) Variants(ctx context.Context, ids []int64) (map[int64]services.Variant, error) {
	return map[int64]services.Variant{
		11: {VariantID: 11, ProductSlug: "assam-gold", Name: "Assam Gold 250g", PriceMinor: 24900, Stock: 5},
	}, nil
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewOrderService(&stubRepo{}, stubCatalog{}, totals.Default())
	r := gin.New()
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(svc))
	return r
}

func postOrder(r *gin.Engine, user, key string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/orders", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user)
	req.Header.Set("Idempotency-Key", key)
	req.Header.Set("X-Cart-Fingerprint", "fp-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrder_CreatedThenReplayed(t *testing.T) {
	r := setupRouter()
	body := gin.H{"items": []gin.H{{"variantId": 11, "qty": 2}}}

	w := postOrder(r, "user-1", "attempt-1", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created services.CreatedOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(49800), created.SubtotalMinor)
	assert.Equal(t, int64(2490), created.TaxMinor)
	assert.Equal(t, int64(5000), created.ShippingMinor)
	assert.Equal(t, int64(57290), created.TotalMinor)
	assert.Equal(t, "created", created.Status)

	w = postOrder(r, "user-1", "attempt-1", body)
	require.Equal(t, http.StatusOK, w.Code)
	var replay services.CreatedOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replay))
	assert.Equal(t, created.ID, replay.ID)

	req := httptest.NewRequest(http.MethodGet, "/internal/orders/"+created.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var internal models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &internal))
	assert.Equal(t, int64(57290), internal.TotalMinor)
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	r := setupRouter()

	w := postOrder(r, "user-1", "k", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postOrder(r, "user-1", "k", gin.H{"items": []gin.H{{"variantId": 11, "qty": 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postOrder(r, "user-1", "k", gin.H{"items": []gin.H{{"variantId": 404, "qty": 1}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "variant 404 not found")

	w = postOrder(r, "", "k", gin.H{"items": []gin.H{{"variantId": 11, "qty": 1}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrderByID_InvalidAndForeign(t *testing.T) {
	r := setupRouter()
	w := postOrder(r, "user-1", "k", gin.H{"items": []gin.H{{"variantId": 11, "qty": 1}}})
	require.Equal(t, http.StatusCreated, w.Code)
	var created services.CreatedOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	get := func(user, id string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+id, nil)
		req.Header.Set("X-User-ID", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("user-1", created.ID))
	assert.Equal(t, http.StatusNotFound, get("user-2", created.ID))
	assert.Equal(t, http.StatusBadRequest, get("user-1", "nope"))
}

func TestGetOrders_Paginates(t *testing.T) {
	r := setupRouter()
	postOrder(r, "user-1", "a", gin.H{"items": []gin.H{{"variantId": 11, "qty": 1}}})
	postOrder(r, "user-1", "b", gin.H{"items": []gin.H{{"variantId": 11, "qty": 1}}})

	req := httptest.NewRequest(http.MethodGet, "/orders?page=1&limit=500", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp services.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, 100, resp.Meta.Limit)
	assert.Equal(t, int64(2), resp.Meta.TotalOrders)
}

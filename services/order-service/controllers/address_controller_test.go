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

	"github.com/yashrajoria/storefront/services/order-service/controllers"
	"github.com/yashrajoria/storefront/services/order-service/models"
	"github.com/yashrajoria/storefront/services/order-service/routes"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

type stubAddresses struct {
	rows []models.Address
}

func (s *stubAddresses) Create(ctx context.Context, addr *models.Address) error {
	s.rows = append(s.rows, *addr)
	return nil
}

func (s *stubAddresses) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var out []models.Address
	for _, a := range s.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAddresses) FindByIDAndUserID(ctx context.Context, id uuid.UUID, userID string) (*models.Address, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAddresses) FindDefault(ctx context.Context, userID string) (*models.Address, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAddresses) SetDefault(ctx context.Context, id uuid.UUID, userID string) error {
	for _, a := range s.rows {
		if a.ID == id && a.UserID == userID {
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubAddresses) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	return s.SetDefault(ctx, id, userID)
}

type stubLeads struct{ count int }

func (s *stubLeads) Upsert(ctx context.Context, lead *models.Lead) error {
	s.count++
	lead.ID = uuid.New()
	return nil
}

func setupAddressRouter() (*gin.Engine, *stubLeads) {
	gin.SetMode(gin.TestMode)
	leads := &stubLeads{}
	svc := services.NewAddressService(&stubAddresses{}, leads, nil)
	r := gin.New()
	routes.RegisterAddressRoutes(r, controllers.NewAddressController(svc))
	return r, leads
}

func send(r *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
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

func TestCreateAddress_ValidatesPincode(t *testing.T) {
	r, _ := setupAddressRouter()
	addr := gin.H{"line1": "12 MG Road", "city": "Bengaluru", "state": "KA", "pincode": "5600"}

	w := send(r, http.MethodPost, "/addresses", "user-1", addr)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	addr["pincode"] = "56000A"
	w = send(r, http.MethodPost, "/addresses", "user-1", addr)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	addr["pincode"] = "560001"
	w = send(r, http.MethodPost, "/addresses", "user-1", addr)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Address models.Address `json:"address"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Address.IsDefault)

	w = send(r, http.MethodGet, "/addresses", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "12 MG Road")

	w = send(r, http.MethodPatch, "/addresses/"+created.Address.ID.String()+"/default", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAddressRoutes_RequireShopper(t *testing.T) {
	r, _ := setupAddressRouter()

	w := send(r, http.MethodGet, "/addresses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodDelete, "/addresses/not-a-uuid", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodDelete, "/addresses/"+uuid.NewString(), "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveLead_Public(t *testing.T) {
	r, leads := setupAddressRouter()

	w := send(r, http.MethodPost, "/leads", "", gin.H{"phone": "+919800000001", "whatsappOptIn": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id"`)

	w = send(r, http.MethodPost, "/leads", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/leads", "", gin.H{"source": "popup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, leads.count)
}

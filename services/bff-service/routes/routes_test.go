package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/bff-service/clients"
	"github.com/yashrajoria/storefront/services/bff-service/controllers"
	"github.com/yashrajoria/storefront/services/bff-service/routes"
	"github.com/yashrajoria/storefront/services/common/auth"
)

type upstreamCall struct {
	method, path, user string
}

func setupRouter(t *testing.T) (*gin.Engine, chan upstreamCall) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	calls := make(chan upstreamCall, 4)
	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- upstreamCall{r.Method, r.URL.Path, r.Header.Get("X-User-ID")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(orders.Close)

	svc := clients.NewServiceClient(orders.URL, time.Second)
	r := gin.New()
	routes.RegisterRoutes(r, controllers.NewProxyController(), nil,
		routes.Upstreams{Cart: svc, Orders: svc, Products: svc},
		auth.NewTokenVerifier("jwt-secret"))
	return r, calls
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestLeads_NoShopperNeeded(t *testing.T) {
	r, calls := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/bff/leads", strings.NewReader(`{"phone":"+919800000001"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, calls, 1)
	assert.Equal(t, upstreamCall{http.MethodPost, "/leads", ""}, <-calls)
}

func TestAddresses_ForwardAuthenticatedShopper(t *testing.T) {
	r, calls := setupRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/bff/addresses/8d2c7f7e-3b5a-4d0e-9a61-0a3c0f1f2b11/default", nil)
	req.Header.Set("X-User-ID", "victim")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, calls)

	req = httptest.NewRequest(http.MethodPatch, "/bff/addresses/8d2c7f7e-3b5a-4d0e-9a61-0a3c0f1f2b11/default", nil)
	req.Header.Set("Authorization", bearer(t, "user-42"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, calls, 1)
	assert.Equal(t, upstreamCall{http.MethodPatch, "/addresses/8d2c7f7e-3b5a-4d0e-9a61-0a3c0f1f2b11/default", "user-42"}, <-calls)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate.Limit(1), 2, time.Minute)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	ok, _ := rl.Reserve("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Reserve("10.0.0.1")
	assert.True(t, ok)
	ok, wait := rl.Reserve("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = rl.Reserve("10.0.0.2")
	assert.True(t, ok, "buckets are per client")

	now = now.Add(time.Second)
	ok, _ = rl.Reserve("10.0.0.1")
	assert.True(t, ok, "token refilled")

	now = now.Add(2 * time.Minute)
	_, _ = rl.Reserve("10.0.0.3")
	assert.Equal(t, 1, rl.Len(), "idle clients swept")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(60, 1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0, 0))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestRequireUser(t *testing.T) {
	verifier := auth.NewTokenVerifier("jwt-secret")
	r := gin.New()
	r.GET("/me", RequireUser(verifier), func(c *gin.Context) {
		id, err := GetUserID(c)
		require.NoError(t, err)
		c.String(http.StatusOK, id)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "jwt-secret", jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "other-secret", jwt.MapClaims{"sub": "user-42"}))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
}

func TestRequireUser_IgnoresUserHeaderWhenTokensAreRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireUser(auth.NewTokenVerifier("jwt-secret")), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "victim")
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "victim")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "victim")
	req.Header.Set("Authorization", "Bearer "+signed(t, "jwt-secret", jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", w.Body.String())
}

func TestRequireUser_TrustsHeaderWithoutVerifier(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireUser(nil), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "guest-7")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest-7", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
}

type recordedMetric struct {
	name string
	dims map[string]string
}

type chanRecorder struct {
	mu   sync.Mutex
	seen []recordedMetric
	done chan struct{}
	want int
}

func (c *chanRecorder) add(name string, dims map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, recordedMetric{name: name, dims: dims})
	if len(c.seen) == c.want {
		close(c.done)
	}
}

func (c *chanRecorder) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	c.add(name, dims)
	return nil
}

func (c *chanRecorder) RecordLatency(ctx context.Context, name string, d time.Duration, dims map[string]string) error {
	c.add(name, dims)
	return nil
}

func TestRecordRequests(t *testing.T) {
	rec := &chanRecorder{done: make(chan struct{}), want: 4}
	r := gin.New()
	r.Use(recordRequests(rec, "order-service"))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, httptest.NewRequest(http.MethodGet, "/orders/123", nil))

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("metrics not recorded")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	names := []string{}
	for _, m := range rec.seen {
		names = append(names, m.name)
		assert.Equal(t, "/orders/:id", m.dims["Path"])
		assert.Equal(t, "4xx", m.dims["Status"])
	}
	assert.ElementsMatch(t, []string{
		awspkg.MetricHTTPRequests, awspkg.MetricHTTPLatency, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx,
	}, names)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "5xx", statusClass(502))
	assert.Equal(t, "unknown", statusClass(0))
}

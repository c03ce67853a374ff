package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/bff-service/clients"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

// PathFunc maps an incoming request to the upstream path.
type PathFunc func(c *gin.Context) string

// Static forwards to a fixed upstream path.
func Static(path string) PathFunc {
	return func(*gin.Context) string { return path }
}

// WithParam forwards to prefix followed by the named route parameter.
func WithParam(prefix, param string) PathFunc {
	return func(c *gin.Context) string { return prefix + c.Param(param) }
}

// ProxyController passes storefront pages through to the owning service.
type ProxyController struct{}

func NewProxyController() *ProxyController {
	return &ProxyController{}
}

func (p *ProxyController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bff-service"})
}

// Proxy forwards the request body and query. Identity headers from the
// browser are dropped; the resolved shopper, if any, is sent as X-User-ID.
func (p *ProxyController) Proxy(target *clients.ServiceClient, method string, path PathFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := clients.ReadJSONBody(c.Request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		headers := http.Header{}
		if ct := c.GetHeader("Content-Type"); ct != "" {
			headers.Set("Content-Type", ct)
		}
		if rid := c.GetString(logger.RequestIDKey); rid != "" {
			headers.Set("X-Request-ID", rid)
		}
		if userID, err := middleware.GetUserID(c); err == nil {
			headers.Set("X-User-ID", userID)
		}

		upstreamPath := path(c)
		resp, err := target.Do(c.Request.Context(), method, upstreamPath, c.Request.URL.Query(), headers, clients.BodyFromBytes(bodyBytes))
		if err != nil {
			logger.Warn(c.Request.Context(), "Upstream request failed", zap.String("path", upstreamPath), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
			return
		}

		if err := clients.CopyResponse(c.Writer, resp); err != nil {
			logger.Warn(c.Request.Context(), "Failed to copy upstream response", zap.String("path", upstreamPath), zap.Error(err))
		}
	}
}

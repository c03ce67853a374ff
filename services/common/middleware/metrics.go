package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
)

const metricsFlushTimeout = 5 * time.Second

// MetricsMiddleware reports every request to CloudWatch. Routes are named by
// their template (/orders/:id) so the Path dimension stays bounded.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	if !metricsClient.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return recordRequests(metricsClient, serviceName)
}

func recordRequests(rec awspkg.MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusClass(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
			defer cancel()

			_ = rec.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
			_ = rec.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)
			if status < 400 {
				return
			}
			_ = rec.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
			if status >= 500 {
				_ = rec.RecordCount(ctx, awspkg.MetricHTTP5xx, dims)
			} else {
				_ = rec.RecordCount(ctx, awspkg.MetricHTTP4xx, dims)
			}
		}()
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

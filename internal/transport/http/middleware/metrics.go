package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records latency and count per matched route template, so
// /api/cart/update/:id stays one series however many item IDs are used.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

package middleware

import "github.com/gin-gonic/gin"

// Security sets common HTTP security headers on every response. The dev
// backend runs over plain HTTP, so HSTS is only sent when secure is set.
func Security(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		if secure {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Next()
	}
}

package middlewares

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the headers every JSON response carries. Responses are
// private and never cached unless the route opts in with CacheFor.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		// JSON only, nothing to load or frame
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// CacheFor marks session-independent responses (menu, restaurant info) as
// cacheable by browsers and shared caches for d.
func CacheFor(d time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(d.Seconds()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Writer.Header().Add("Vary", "Accept-Language")
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"pricebook/internal/domain/pricing"
)

// RequestCache gives every request its own schedule cache. Writes made through the
// request invalidate the entries they touch.
func RequestCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(pricing.WithRequestCache(c.Request.Context()))
		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "pricebook/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// UserContext copies the caller identity forwarded by the gateway into the request context.
// Audit hooks read it to stamp createdBy and updatedBy.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID:    uid,
				SessionID: c.GetHeader(HeaderSessionID),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

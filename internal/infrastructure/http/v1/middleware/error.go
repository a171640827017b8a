package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pricebook/internal/core/apperror"
	"pricebook/internal/infrastructure/http/v1/dto"
	"pricebook/pkg/logger"
)

// ErrorHandler transforms errors registered on the context into JSON responses.
// Internal errors are logged in full and hidden from clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(ctx, "request error", "code", appErr.Code, "error", err)
			}
			c.JSON(appErr.HTTPStatus, dto.ErrorBody(appErr))
			return
		}

		logger.Error(ctx, "unhandled error", "error", err)
		body := dto.ErrorBody(err)
		body.Details = map[string]any{"request_id": c.GetString(ctxKeyRequestID)}
		c.JSON(http.StatusInternalServerError, body)
	}
}

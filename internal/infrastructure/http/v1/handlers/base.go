// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pricebook/internal/core/apperror"
	"pricebook/internal/core/id"
	"pricebook/internal/core/types"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindOptionalJSON binds the body when one is sent.
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the path parameter name as a UUID.
func (h *BaseHandler) ParseID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewInvalidArgument(name, "invalid id: "+raw))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseDateQuery parses an optional YYYY-MM-DD value. Empty input yields the zero date.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, name, raw string) (types.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Date{}, true
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		h.Error(c, apperror.NewInvalidArgument(name, "date must be YYYY-MM-DD: "+raw))
		return types.Date{}, false
	}
	return d, true
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

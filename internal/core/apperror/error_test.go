package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	base := NewDuplicate("price schedule", "effectiveDate", "2024-01-01")
	wrapped := fmt.Errorf("create price schedule: %w", base)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("CANCELLED", "ACTIVE")

	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "CANCELLED", err.Details["from"])
	assert.Equal(t, "ACTIVE", err.Details["to"])
}

func TestFieldErrors(t *testing.T) {
	fields := []FieldError{
		{Field: "basePrice", Rule: "gt", Message: "must be greater than 0"},
		{Field: "itemId", Rule: "required", Message: "is required"},
	}
	err := fmt.Errorf("wrapped: %w", NewFieldValidation("invalid", fields))

	assert.True(t, IsValidation(err))
	assert.Equal(t, fields, FieldErrors(err))
	assert.Nil(t, FieldErrors(NewNotFound("x", 1)))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewInternal(errors.New("connection refused"))
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, err.Err)
}

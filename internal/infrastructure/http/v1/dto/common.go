// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"pricebook/internal/core/apperror"
	"pricebook/internal/domain"
)

// IDResponse contains a single ID.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorBody describes err for a response body. Non-application errors are hidden behind a
// generic message.
func ErrorBody(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return &ErrorResponse{Code: apperror.CodeInternal, Message: "Internal server error"}
	}
	return &ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps every item of res with fn.
func NewListResponse[E, T any](res domain.ListResult[E], fn func(E) T) ListResponse[T] {
	items := make([]T, len(res.Items))
	for i, e := range res.Items {
		items[i] = fn(e)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

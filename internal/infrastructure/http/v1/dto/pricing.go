package dto

import (
	"pricebook/internal/core/types"
	"pricebook/internal/domain/pricing"
)

// EffectivePriceQuery holds the query parameters of the effective price endpoint.
// Date defaults to today.
type EffectivePriceQuery struct {
	ItemID     string `form:"itemId" binding:"required"`
	Date       string `form:"date"`
	CustomerID string `form:"customerId"`
}

// BatchLineRequest is one line of a batch resolution.
type BatchLineRequest struct {
	ItemID     string     `json:"itemId"`
	CustomerID *string    `json:"customerId"`
	Date       types.Date `json:"date"`
}

// BatchResolveRequest resolves many lines at once. Lines without a date use Date,
// then today.
type BatchResolveRequest struct {
	Date       types.Date         `json:"date"`
	CustomerID *string            `json:"customerId"`
	Lines      []BatchLineRequest `json:"lines" binding:"required,min=1,max=1000"`
}

// ToQueries expands the request into resolver queries. A line-level customer overrides
// the request-level one.
func (r *BatchResolveRequest) ToQueries() []pricing.Query {
	out := make([]pricing.Query, len(r.Lines))
	for i, l := range r.Lines {
		q := pricing.Query{ItemID: l.ItemID, CustomerID: l.CustomerID, AsOf: l.Date}
		if q.CustomerID == nil {
			q.CustomerID = r.CustomerID
		}
		if q.AsOf.IsZero() {
			q.AsOf = r.Date
		}
		out[i] = q
	}
	return out
}

// BatchLineResponse carries either a price or an error for one line.
type BatchLineResponse struct {
	Line  int                     `json:"line"`
	Price *pricing.EffectivePrice `json:"price,omitempty"`
	Error *ErrorResponse          `json:"error,omitempty"`
}

// BatchResolveResponse is the response body of a batch resolution.
type BatchResolveResponse struct {
	Resolved int                 `json:"resolved"`
	Failed   int                 `json:"failed"`
	Lines    []BatchLineResponse `json:"lines"`
}

// FromBatch creates response DTO from batch results.
func FromBatch(lines []pricing.BatchLine) BatchResolveResponse {
	resp := BatchResolveResponse{Lines: make([]BatchLineResponse, len(lines))}
	for i, l := range lines {
		resp.Lines[i] = BatchLineResponse{Line: i + 1, Price: l.Price, Error: ErrorBody(l.Err)}
		if l.Err != nil {
			resp.Failed++
		} else {
			resp.Resolved++
		}
	}
	return resp
}

package dto

import (
	"time"

	"pricebook/internal/core/types"
	"pricebook/internal/domain/pricing"
)

// --- Request DTOs ---

// CreateScheduleRequest is the request body for creating a price schedule.
// Money and percentage fields accept JSON numbers or decimal strings.
type CreateScheduleRequest struct {
	ItemID        string       `json:"itemId"`
	CustomerID    *string      `json:"customerId"`
	EffectiveDate types.Date   `json:"effectiveDate"`
	BasePrice     types.Money  `json:"basePrice"`
	Discount1Pct  *types.Money `json:"discount1Pct"`
	Discount2Pct  *types.Money `json:"discount2Pct"`
	TaxPct        *types.Money `json:"taxPct"`
	Notes         string       `json:"notes"`
}

// ToInput converts the DTO to a service input.
func (r *CreateScheduleRequest) ToInput() pricing.CreateInput {
	return pricing.CreateInput{
		ItemID:        r.ItemID,
		CustomerID:    r.CustomerID,
		EffectiveDate: r.EffectiveDate,
		BasePrice:     r.BasePrice,
		Discount1Pct:  r.Discount1Pct,
		Discount2Pct:  r.Discount2Pct,
		TaxPct:        r.TaxPct,
		Notes:         r.Notes,
	}
}

// BulkCreateRequest is the request body for a bulk import.
type BulkCreateRequest struct {
	Rows []CreateScheduleRequest `json:"rows" binding:"required,min=1,max=1000"`
}

// UpdateScheduleRequest is a partial update. Omitted or null fields stay unchanged;
// customerId "" turns the schedule global.
type UpdateScheduleRequest struct {
	ItemID        *string      `json:"itemId"`
	CustomerID    *string      `json:"customerId"`
	EffectiveDate *types.Date  `json:"effectiveDate"`
	BasePrice     *types.Money `json:"basePrice"`
	Discount1Pct  *types.Money `json:"discount1Pct"`
	Discount2Pct  *types.Money `json:"discount2Pct"`
	TaxPct        *types.Money `json:"taxPct"`
	Notes         *string      `json:"notes"`

	// Version, when sent, must match the stored version.
	Version *int `json:"version" binding:"omitempty,min=1"`
}

// ToPatch converts the DTO to a service patch.
func (r *UpdateScheduleRequest) ToPatch() pricing.Patch {
	return pricing.Patch{
		ItemID:          r.ItemID,
		CustomerID:      r.CustomerID,
		EffectiveDate:   r.EffectiveDate,
		BasePrice:       r.BasePrice,
		Discount1Pct:    r.Discount1Pct,
		Discount2Pct:    r.Discount2Pct,
		TaxPct:          r.TaxPct,
		Notes:           r.Notes,
		ExpectedVersion: r.Version,
	}
}

// CancelScheduleRequest is the optional body of a cancel request.
type CancelScheduleRequest struct {
	Reason *string `json:"reason"`
}

// ListSchedulesQuery holds the query parameters of the schedule list endpoint.
type ListSchedulesQuery struct {
	ItemID     string `form:"itemId"`
	CustomerID string `form:"customerId"`
	Scope      string `form:"scope" binding:"omitempty,oneof=global customer"`
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
	Limit      int    `form:"limit" binding:"omitempty,min=0,max=500"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
	OrderBy    string `form:"orderBy"`
}

// HistoryQuery holds the query parameters of the schedule history endpoint.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0,max=500"`
}

// --- Response DTOs ---

// ScheduleResponse is the response body for a price schedule.
type ScheduleResponse struct {
	ID            string     `json:"id"`
	Version       int        `json:"version"`
	ItemID        string     `json:"itemId"`
	CustomerID    *string    `json:"customerId"`
	Scope         string     `json:"scope"`
	EffectiveDate types.Date `json:"effectiveDate"`

	BasePrice           types.Money  `json:"basePrice"`
	Discount1Pct        *types.Money `json:"discount1Pct"`
	Discount2Pct        *types.Money `json:"discount2Pct"`
	PriceAfterDiscount1 types.Money  `json:"priceAfterDiscount1"`
	PriceAfterDiscount2 types.Money  `json:"priceAfterDiscount2"`
	TaxPct              *types.Money `json:"taxPct"`

	Status       string  `json:"status"`
	Notes        string  `json:"notes,omitempty"`
	CancelReason *string `json:"cancelReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// FromSchedule creates response DTO from domain entity.
func FromSchedule(s *pricing.PriceSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                  s.ID.String(),
		Version:             s.Version,
		ItemID:              s.ItemID,
		CustomerID:          s.CustomerID,
		Scope:               string(s.Scope()),
		EffectiveDate:       s.EffectiveDate,
		BasePrice:           s.BasePrice,
		Discount1Pct:        s.Discount1Pct,
		Discount2Pct:        s.Discount2Pct,
		PriceAfterDiscount1: s.PriceAfterDiscount1,
		PriceAfterDiscount2: s.PriceAfterDiscount2,
		TaxPct:              s.TaxPct,
		Status:              string(s.Status),
		Notes:               s.Notes,
		CancelReason:        s.CancelReason,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CreatedBy:           s.CreatedBy,
		UpdatedBy:           s.UpdatedBy,
	}
}

// FromSchedules maps a slice of schedules.
func FromSchedules(list []*pricing.PriceSchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, len(list))
	for i, s := range list {
		out[i] = FromSchedule(s)
	}
	return out
}

// BulkRowResponse is the outcome of one imported row.
type BulkRowResponse struct {
	Row   int            `json:"row"`
	ID    string         `json:"id,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// BulkReportResponse summarizes a bulk import.
type BulkReportResponse struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Rows    []BulkRowResponse `json:"rows"`
}

// FromBulkReport creates response DTO from a bulk report.
func FromBulkReport(r pricing.BulkReport) BulkReportResponse {
	rows := make([]BulkRowResponse, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = BulkRowResponse{Row: row.Row, ID: row.ID, Error: ErrorBody(row.Error)}
	}
	return BulkReportResponse{Created: r.Created, Failed: r.Failed, Rows: rows}
}

// HistoryEntryResponse is one recorded change of a schedule.
type HistoryEntryResponse struct {
	ID        string                         `json:"id"`
	Action    string                         `json:"action"`
	UserID    string                         `json:"userId,omitempty"`
	Changes   map[string]pricing.FieldChange `json:"changes"`
	CreatedAt time.Time                      `json:"createdAt"`
}

// FromHistory maps history entries.
func FromHistory(entries []pricing.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			UserID:    e.UserID,
			Changes:   e.Changes,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

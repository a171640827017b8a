// Package pricing implements point-in-time price resolution over dated price schedules.
//
// A price schedule fixes the base price of an item from its effective date onwards, either
// for every customer (global) or for one customer. Each schedule carries a two-stage
// cascading discount and a tax rate. Resolution picks, for a date, the most recent
// applicable schedule, preferring customer-specific ones over global ones.
package pricing

import (
	"strings"

	"pricebook/internal/core/entity"
	"pricebook/internal/core/types"
)

// Status is the lifecycle state of a price schedule.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusActive, StatusExpired, StatusCancelled:
		return st, true
	}
	return "", false
}

// Scope says whether a schedule applies to every customer or to one.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeCustomer Scope = "customer"
)

var _ entity.Validatable = (*PriceSchedule)(nil)

// PriceSchedule is a dated price for an item, optionally bound to a customer.
type PriceSchedule struct {
	entity.BaseRecord

	ItemID        string     `db:"item_id" json:"itemId" validate:"required,notblank,max=64"`
	CustomerID    *string    `db:"customer_id" json:"customerId,omitempty" validate:"omitnil,notblank,max=64"`
	EffectiveDate types.Date `db:"effective_date" json:"effectiveDate" validate:"required,sanedate"`

	BasePrice    types.Money  `db:"base_price" json:"basePrice" validate:"price"`
	Discount1Pct *types.Money `db:"discount1_pct" json:"discount1Pct,omitempty" validate:"omitnil,percent"`
	Discount2Pct *types.Money `db:"discount2_pct" json:"discount2Pct,omitempty" validate:"omitnil,percent"`
	TaxPct       *types.Money `db:"tax_pct" json:"taxPct,omitempty" validate:"omitnil,percent"`

	// Derived by ComputeCascade on every write.
	PriceAfterDiscount1 types.Money `db:"price_after_discount1" json:"priceAfterDiscount1"`
	PriceAfterDiscount2 types.Money `db:"price_after_discount2" json:"priceAfterDiscount2"`

	// Status holds PENDING or CANCELLED when persisted; reads replace it with the
	// status effective as of the read date.
	Status       Status  `db:"status" json:"status"`
	Notes        string  `db:"notes" json:"notes,omitempty" validate:"max=2000"`
	CancelReason *string `db:"cancel_reason" json:"cancelReason,omitempty" validate:"omitnil,max=500"`
}

// Scope reports whether the schedule is global or customer-specific.
func (s *PriceSchedule) Scope() Scope {
	if s.CustomerID == nil {
		return ScopeGlobal
	}
	return ScopeCustomer
}

// ScopeKey identifies the (item, customer) partition the schedule competes in.
func (s *PriceSchedule) ScopeKey() string {
	return scopeKey(s.ItemID, s.CustomerID)
}

// IsCancelled reports whether the persisted status is CANCELLED.
func (s *PriceSchedule) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *PriceSchedule) Clone() *PriceSchedule {
	c := *s
	c.CustomerID = cloneString(s.CustomerID)
	c.CancelReason = cloneString(s.CancelReason)
	c.Discount1Pct = cloneMoney(s.Discount1Pct)
	c.Discount2Pct = cloneMoney(s.Discount2Pct)
	c.TaxPct = cloneMoney(s.TaxPct)
	return &c
}

// CustomerKey returns the customer id or "" for global schedules.
func (s *PriceSchedule) CustomerKey() string {
	if s.CustomerID == nil {
		return ""
	}
	return *s.CustomerID
}

func scopeKey(itemID string, customerID *string) string {
	if customerID == nil {
		return itemID + "\x00"
	}
	return itemID + "\x00" + *customerID
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMoney(p *types.Money) *types.Money {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CreateInput is the caller-supplied part of a new schedule.
type CreateInput struct {
	ItemID        string
	CustomerID    *string
	EffectiveDate types.Date
	BasePrice     types.Money
	Discount1Pct  *types.Money
	Discount2Pct  *types.Money
	TaxPct        *types.Money
	Notes         string
}

// BulkRowResult reports the outcome of one row of a bulk import.
type BulkRowResult struct {
	Row   int            `json:"row"`
	ID    string         `json:"id,omitempty"`
	Error error          `json:"-"`
	Item  *PriceSchedule `json:"-"`
}

// BulkReport summarizes a bulk import.
type BulkReport struct {
	Created int             `json:"created"`
	Failed  int             `json:"failed"`
	Rows    []BulkRowResult `json:"rows"`
}

package pricing

import (
	"pricebook/internal/core/id"
	"pricebook/internal/core/types"
)

// Query asks for the price of an item on a date, optionally for a customer.
type Query struct {
	ItemID     string
	CustomerID *string
	AsOf       types.Date
}

// Source tells where an effective price came from.
type Source string

const (
	SourceScheduled Source = "scheduled"
	SourceBase      Source = "base"
)

// EffectivePrice is the resolved price of an item for a query.
type EffectivePrice struct {
	ItemID     string     `json:"itemId"`
	CustomerID *string    `json:"customerId,omitempty"`
	AsOf       types.Date `json:"asOf"`
	Source     Source     `json:"source"`
	Scope      Scope      `json:"scope,omitempty"`

	ScheduleID    *id.ID     `json:"scheduleId,omitempty"`
	EffectiveDate types.Date `json:"effectiveDate"`

	BasePrice           types.Money  `json:"basePrice"`
	Discount1Pct        types.Money  `json:"discount1Pct"`
	Discount2Pct        types.Money  `json:"discount2Pct"`
	PriceAfterDiscount1 types.Money  `json:"priceAfterDiscount1"`
	PriceAfterDiscount2 types.Money  `json:"priceAfterDiscount2"`
	TaxPct              *types.Money `json:"taxPct,omitempty"`
	TaxAmount           *types.Money `json:"taxAmount,omitempty"`
}

// Resolve picks the schedule that applies to q among the schedules of one item.
// A customer-specific candidate wins over any global one regardless of dates.
// Within a partition the latest effective date on or before q.AsOf wins.
func Resolve(schedules []*PriceSchedule, q Query) (*PriceSchedule, Scope, bool) {
	var customer, global *PriceSchedule
	for _, s := range schedules {
		if s.ItemID != q.ItemID || s.IsCancelled() || s.EffectiveDate.After(q.AsOf) {
			continue
		}
		switch {
		case s.CustomerID == nil:
			if global == nil || newer(s, global) {
				global = s
			}
		case q.CustomerID != nil && *s.CustomerID == *q.CustomerID:
			if customer == nil || newer(s, customer) {
				customer = s
			}
		}
	}

	if customer != nil {
		return customer, ScopeCustomer, true
	}
	if global != nil {
		return global, ScopeGlobal, true
	}
	return nil, "", false
}

// priceFromSchedule builds the effective price from a winning schedule,
// recomputing the cascade from its inputs.
func priceFromSchedule(s *PriceSchedule, scope Scope, q Query) (*EffectivePrice, error) {
	after1, after2, err := ComputeCascade(s.BasePrice, s.Discount1Pct, s.Discount2Pct)
	if err != nil {
		return nil, err
	}
	scheduleID := s.ID
	ep := &EffectivePrice{
		ItemID:              q.ItemID,
		CustomerID:          q.CustomerID,
		AsOf:                q.AsOf,
		Source:              SourceScheduled,
		Scope:               scope,
		ScheduleID:          &scheduleID,
		EffectiveDate:       s.EffectiveDate,
		BasePrice:           s.BasePrice,
		Discount1Pct:        types.ValueOrZero(s.Discount1Pct),
		Discount2Pct:        types.ValueOrZero(s.Discount2Pct),
		PriceAfterDiscount1: after1,
		PriceAfterDiscount2: after2,
	}
	if s.TaxPct != nil {
		tax, err := ComputeTax(after2, *s.TaxPct)
		if err != nil {
			return nil, err
		}
		ep.TaxPct = cloneMoney(s.TaxPct)
		ep.TaxAmount = &tax
	}
	return ep, nil
}

// priceFromBase builds an undiscounted effective price from a fallback base price.
func priceFromBase(base types.Money, q Query) *EffectivePrice {
	return &EffectivePrice{
		ItemID:              q.ItemID,
		CustomerID:          q.CustomerID,
		AsOf:                q.AsOf,
		Source:              SourceBase,
		BasePrice:           base,
		Discount1Pct:        types.Zero(),
		Discount2Pct:        types.Zero(),
		PriceAfterDiscount1: types.RoundMoney(base),
		PriceAfterDiscount2: types.RoundMoney(base),
	}
}

package pricing

import (
	"strings"

	"pricebook/internal/core/types"
)

// Patch is a partial update. Nil fields are left unchanged.
// CustomerID set to an empty string turns the schedule global.
type Patch struct {
	ItemID        *string
	CustomerID    *string
	EffectiveDate *types.Date
	BasePrice     *types.Money
	Discount1Pct  *types.Money
	Discount2Pct  *types.Money
	TaxPct        *types.Money
	Notes         *string

	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.ItemID == nil && p.CustomerID == nil && p.EffectiveDate == nil &&
		p.BasePrice == nil && p.Discount1Pct == nil && p.Discount2Pct == nil &&
		p.TaxPct == nil && p.Notes == nil
}

// apply writes the patch onto s.
func (p Patch) apply(s *PriceSchedule) {
	if p.ItemID != nil {
		s.ItemID = strings.TrimSpace(*p.ItemID)
	}
	if p.CustomerID != nil {
		s.CustomerID = normalizeCustomer(*p.CustomerID)
	}
	if p.EffectiveDate != nil {
		s.EffectiveDate = *p.EffectiveDate
	}
	if p.BasePrice != nil {
		s.BasePrice = *p.BasePrice
	}
	if p.Discount1Pct != nil {
		s.Discount1Pct = cloneMoney(p.Discount1Pct)
	}
	if p.Discount2Pct != nil {
		s.Discount2Pct = cloneMoney(p.Discount2Pct)
	}
	if p.TaxPct != nil {
		s.TaxPct = cloneMoney(p.TaxPct)
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
}

// keyChanged reports whether next differs from prev in item, customer or effective date.
func keyChanged(prev, next *PriceSchedule) bool {
	return prev.ItemID != next.ItemID ||
		prev.CustomerKey() != next.CustomerKey() ||
		!prev.EffectiveDate.Equal(next.EffectiveDate)
}

// normalizeCustomer maps "" to a global schedule. Whitespace-only ids are kept so that
// validation reports them.
func normalizeCustomer(v string) *string {
	if v == "" {
		return nil
	}
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return &v
	}
	return &trimmed
}

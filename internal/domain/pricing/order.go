package pricing

import (
	"strings"

	"pricebook/internal/core/apperror"
)

// Sortable list fields.
const (
	SortEffectiveDate = "effectiveDate"
	SortItemID        = "itemId"
	SortCustomerID    = "customerId"
	SortBasePrice     = "basePrice"
	SortCreatedAt     = "createdAt"
	SortUpdatedAt     = "updatedAt"
)

// DefaultOrderBy lists the newest effective dates first.
const DefaultOrderBy = "-" + SortEffectiveDate

var sortable = map[string]bool{
	SortEffectiveDate: true,
	SortItemID:        true,
	SortCustomerID:    true,
	SortBasePrice:     true,
	SortCreatedAt:     true,
	SortUpdatedAt:     true,
}

// OrderBy is a parsed sort instruction.
type OrderBy struct {
	Field string
	Desc  bool
}

// ParseOrderBy parses "field" or "-field". Empty input yields DefaultOrderBy.
func ParseOrderBy(s string) (OrderBy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultOrderBy
	}
	ob := OrderBy{Field: s}
	if strings.HasPrefix(s, "-") {
		ob = OrderBy{Field: s[1:], Desc: true}
	}
	if !sortable[ob.Field] {
		return OrderBy{}, apperror.NewInvalidArgument("orderBy", "cannot sort by "+ob.Field)
	}
	return ob, nil
}

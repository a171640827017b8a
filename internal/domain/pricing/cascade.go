package pricing

import (
	"pricebook/internal/core/apperror"
	"pricebook/internal/core/types"
)

// ComputeCascade applies discount1 to the base price and discount2 to the result.
// Each stage is rounded to two places, half away from zero, before the next one runs.
// Absent discounts count as zero.
func ComputeCascade(basePrice types.Money, discount1Pct, discount2Pct *types.Money) (types.Money, types.Money, error) {
	if !basePrice.IsPositive() {
		return types.Zero(), types.Zero(), apperror.NewInvalidArgument("basePrice", "base price must be greater than 0")
	}
	d1 := types.ValueOrZero(discount1Pct)
	d2 := types.ValueOrZero(discount2Pct)
	if err := checkPercent("discount1Pct", d1); err != nil {
		return types.Zero(), types.Zero(), err
	}
	if err := checkPercent("discount2Pct", d2); err != nil {
		return types.Zero(), types.Zero(), err
	}

	after1 := applyDiscount(basePrice, d1)
	after2 := applyDiscount(after1, d2)
	return after1, after2, nil
}

// ComputeTax returns the tax owed on net at taxPct, rounded to two places.
// It is reported next to the net price and never added into it.
func ComputeTax(net types.Money, taxPct types.Money) (types.Money, error) {
	if err := checkPercent("taxPct", taxPct); err != nil {
		return types.Zero(), err
	}
	return types.RoundMoney(net.Mul(taxPct).Div(types.Hundred)), nil
}

func applyDiscount(price, pct types.Money) types.Money {
	return types.RoundMoney(price.Mul(types.Hundred.Sub(pct)).Div(types.Hundred))
}

func checkPercent(name string, pct types.Money) error {
	if pct.IsNegative() || pct.GreaterThan(types.Hundred) {
		return apperror.NewInvalidArgument(name, name+" must be between 0 and 100")
	}
	return nil
}

// recompute refreshes the derived prices of s from its inputs.
func recompute(s *PriceSchedule) error {
	after1, after2, err := ComputeCascade(s.BasePrice, s.Discount1Pct, s.Discount2Pct)
	if err != nil {
		return err
	}
	s.PriceAfterDiscount1 = after1
	s.PriceAfterDiscount2 = after2
	return nil
}

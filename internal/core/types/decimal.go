// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyPlaces is the number of fractional digits prices are rounded to.
const MoneyPlaces int32 = 2

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MoneyPtr returns a pointer to the parsed value. Use only for constants and tests.
func MoneyPtr(s string) *Money {
	d := MustMoney(s)
	return &d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Hundred is the percentage base.
var Hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to MoneyPlaces digits.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// ValueOrZero dereferences an optional amount, treating nil as zero.
func ValueOrZero(m *Money) Money {
	if m == nil {
		return decimal.Zero
	}
	return *m
}

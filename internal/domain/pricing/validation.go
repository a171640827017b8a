package pricing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pricebook/internal/core/apperror"
	"pricebook/internal/core/types"
)

// Accepted effective date range.
var (
	MinEffectiveDate = types.NewDate(1900, time.January, 1)
	MaxEffectiveDate = types.NewDate(9999, time.December, 31)
)

// Storage precision of prices (NUMERIC(18,2)) and percentages (NUMERIC(7,4)).
const (
	PriceScale   = 2
	PercentScale = 4
)

var (
	maxPrice    = decimal.New(1, 16) // exclusive
	hundred     = decimal.NewFromInt(100)
	priceRule   = fmt.Sprintf("must be greater than 0 and below 10^16 with at most %d decimal places", PriceScale)
	percentRule = fmt.Sprintf("must be between 0 and 100 with at most %d decimal places", PercentScale)
)

// ValidPrice reports whether d is a storable positive price.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(maxPrice) && d.Equal(d.Truncate(PriceScale))
}

// ValidPercent reports whether d is a storable percentage in [0,100].
func ValidPercent(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred) && d.Equal(d.Truncate(PercentScale))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})

	// Decimals reach the rules as exact strings.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(types.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.Time()
	}, types.Date{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ValidPrice(d)
	})
	_ = v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ValidPercent(d)
	})
	_ = v.RegisterValidation("sanedate", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		d := types.DateOf(t)
		return !d.Before(MinEffectiveDate) && !d.After(MaxEffectiveDate)
	})
	return v
}

// Validate checks every field rule of the schedule and reports all failures at once.
// It satisfies entity.Validatable; the rules need nothing from ctx.
func (s *PriceSchedule) Validate(_ context.Context) error {
	return ValidateSchedule(s)
}

// ValidateSchedule runs the field rules against s.
func ValidateSchedule(s *PriceSchedule) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation("price schedule is invalid").WithCause(err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return apperror.NewFieldValidation("price schedule is invalid", fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "sanedate":
		return fmt.Sprintf("must be between %s and %s", MinEffectiveDate, MaxEffectiveDate)
	case "price":
		return priceRule
	case "percent":
		return percentRule
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}

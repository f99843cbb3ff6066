package domain

import (
	"github.com/shopspring/decimal"
)

// MaxAmountCents is the upper bound for any balance or payment amount.
const MaxAmountCents int64 = 999_999_999

// Amount is an integer-cents monetary value. The zero value is a valid
// zero amount. Instances are only built through the validated factories.
type Amount struct {
	cents int64
}

func NewAmount(cents int64) (Amount, error) {
	if cents < 0 {
		return Amount{}, NewValidationError("amount", "cannot be negative")
	}
	if cents > MaxAmountCents {
		return Amount{}, NewValidationError("amount", "exceeds maximum allowed value")
	}
	return Amount{cents: cents}, nil
}

// NewAmountFromDecimal converts a decimal major-unit value (e.g. "25.00")
// into cents, rounding to the nearest cent.
func NewAmountFromDecimal(value decimal.Decimal) (Amount, error) {
	cents := value.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsInteger() {
		return Amount{}, NewValidationError("amount", "is not a valid monetary value")
	}
	return NewAmount(cents.IntPart())
}

func (a Amount) Cents() int64 {
	return a.cents
}

func (a Amount) Add(other Amount) (Amount, error) {
	return NewAmount(a.cents + other.cents)
}

func (a Amount) Sub(other Amount) (Amount, error) {
	return NewAmount(a.cents - other.cents)
}

func (a Amount) LessThan(other Amount) bool {
	return a.cents < other.cents
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.cents, -2)
}

// String formats the amount with fixed two decimal places, e.g. 2500 -> "25.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

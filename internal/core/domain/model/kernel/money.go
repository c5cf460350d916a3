package kernel

import (
	"fmt"

	"pizzeria/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Money is a non-negative monetary amount in the restaurant's single currency.
// Arithmetic is exact; amounts are rounded to cents only when constructed or rendered.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney returns an amount of 0.00.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// NewMoney validates that amount is not negative and rounds it to cents.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"amount", fmt.Errorf("%s is negative", amount.String()),
		)
	}
	return Money{amount: amount.Round(2)}, nil
}

// MoneyFromString parses a decimal string such as "9.99".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount", err)
	}
	return NewMoney(d)
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) (Money, error) {
	return NewMoney(decimal.New(cents, -2))
}

// Decimal returns the amount for persistence and transport.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Times returns m multiplied by a quantity.
func (m Money) Times(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

// DividedBy returns m / n rounded to cents, or zero when n is not positive.
func (m Money) DividedBy(n int) Money {
	if n <= 0 {
		return ZeroMoney()
	}
	return Money{amount: m.amount.Div(decimal.NewFromInt(int64(n))).Round(2)}
}

// SubFloor returns m - other, floored at zero.
func (m Money) SubFloor(other Money) Money {
	diff := m.amount.Sub(other.amount)
	if diff.IsNegative() {
		return ZeroMoney()
	}
	return Money{amount: diff}
}

// WholeMultiplesOf returns floor(m / unit). unit must be positive.
func (m Money) WholeMultiplesOf(unit Money) int {
	if !unit.IsPositive() {
		return 0
	}
	return int(m.amount.Div(unit.amount).Floor().IntPart())
}

// IsZero reports whether the amount is 0.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is greater than 0.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Equal compares amounts numerically, so 5 and 5.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount with two decimals.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// Package money models amounts tagged with a currency and renders them for
// display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in a specific currency. An empty Currency means the
// business (base) currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// New builds a Money value.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: normalize(currency)}
}

// Base builds a Money value in the business currency.
func Base(amount decimal.Decimal) Money {
	return Money{Amount: amount}
}

// Convert applies rate and relabels the result in currency to.
func (m Money) Convert(rate decimal.Decimal, to string) Money {
	return Money{Amount: m.Amount.Mul(rate), Currency: normalize(to)}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add sums two amounts. The currency of m is kept.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Mul scales the amount by qty.
func (m Money) Mul(qty decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(qty), Currency: m.Currency}
}

// RoundCents rounds x to two decimals.
func RoundCents(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

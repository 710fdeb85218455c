package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts for a locale and business currency.
type Formatter struct {
	Locale   string
	Currency string
	Symbol   string
}

// NewFormatter builds a Formatter. An unparsable locale falls back to English.
func NewFormatter(locale, currencyCode, symbol string) Formatter {
	return Formatter{Locale: locale, Currency: currencyCode, Symbol: symbol}
}

func (f Formatter) tag() language.Tag {
	tag, err := language.Parse(strings.TrimSpace(f.Locale))
	if err != nil {
		return language.English
	}
	return tag
}

// Format renders amount with the configured currency. When the currency code
// cannot be resolved the output is "<symbol> <locale-formatted-number>".
func (f Formatter) Format(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	printer := message.NewPrinter(f.tag())
	unit, err := currency.ParseISO(strings.TrimSpace(f.Currency))
	if err != nil {
		formatted := printer.Sprint(number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
		symbol := strings.TrimSpace(f.Symbol)
		if symbol == "" {
			return formatted
		}
		return symbol + " " + formatted
	}
	return printer.Sprint(currency.Symbol(unit.Amount(value)))
}

// FormatMoney renders m, using its own currency when set.
func (f Formatter) FormatMoney(m Money) string {
	if m.Currency != "" && !strings.EqualFold(m.Currency, f.Currency) {
		return Formatter{Locale: f.Locale, Currency: m.Currency, Symbol: m.Currency}.Format(m.Amount)
	}
	return f.Format(m.Amount)
}

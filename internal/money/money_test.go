package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	eur := New(decimal.NewFromInt(100), "eur")
	require.Equal(t, "EUR", eur.Currency)

	base := eur.Convert(decimal.RequireFromString("1.25"), "")
	require.True(t, base.Amount.Equal(decimal.NewFromInt(125)))
	require.Empty(t, base.Currency)
}

func TestArithmetic(t *testing.T) {
	m := Base(decimal.NewFromInt(10)).Mul(decimal.NewFromInt(3)).Add(Base(decimal.NewFromInt(5)))
	require.True(t, m.Amount.Equal(decimal.NewFromInt(35)))
	require.False(t, m.IsZero())
	require.True(t, RoundCents(decimal.RequireFromString("10.005")).Equal(decimal.RequireFromString("10.01")))
}

func TestFormatFallsBackToSymbol(t *testing.T) {
	f := NewFormatter("en-US", "??", "Ks")
	out := f.Format(decimal.RequireFromString("1234.5"))
	require.True(t, strings.HasPrefix(out, "Ks "), "got %q", out)
	require.Contains(t, out, "1,234.50")
}

func TestFormatKnownCurrency(t *testing.T) {
	f := NewFormatter("en-US", "USD", "$")
	out := f.Format(decimal.NewFromInt(42))
	require.Contains(t, out, "42")
}

func TestFormatBadLocale(t *testing.T) {
	f := NewFormatter("!!", "??", "")
	require.Contains(t, f.Format(decimal.NewFromInt(7)), "7.00")
}

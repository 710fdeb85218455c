package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a numeric field decoded leniently. Values that cannot be read as
// a number become zero instead of failing the decode.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountOf builds an Amount from a float, mostly for tests and fixtures.
func AmountOf(v float64) Amount {
	return Amount{Decimal: Coerce(v)}
}

// Ptr returns a pointer to a copy of a, used for optional fields.
func (a Amount) Ptr() *Amount {
	return &a
}

// Dec returns the decimal value, zero for a nil optional field.
func (a *Amount) Dec() decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return a.Decimal
}

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON never returns an error: anything non-numeric decodes to zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Decimal = coerceJSON(data)
	return nil
}

func coerceJSON(data []byte) decimal.Decimal {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return decimal.Zero
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return decimal.Zero
		}
		return parseLenient(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// parseLenient keeps digits, '.' and a sign, so user formatted strings like
// "1,250.00", "Ks 20,000" or "$-5" still read as numbers. The sign is a '-'
// leading the string or standing right before the first digit; a '-' after
// the first digit is dropped like any other separator.
func parseLenient(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	neg := strings.HasPrefix(s, "-")
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 1)
	digits := false
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9':
			digits = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && !digits && i+1 < len(runes) && startsNumber(runes[i+1:]):
			neg = true
		}
	}
	clean := b.String()
	if clean == "" || clean == "." {
		return decimal.Zero
	}
	if neg {
		clean = "-" + clean
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// startsNumber reports whether rs opens with a digit, or a '.' then a digit.
func startsNumber(rs []rune) bool {
	if len(rs) > 0 && rs[0] == '.' {
		rs = rs[1:]
	}
	return len(rs) > 0 && rs[0] >= '0' && rs[0] <= '9'
}

// Coerce converts an arbitrary Go value to a decimal using the same lenient
// policy as JSON decoding.
func Coerce(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case Amount:
		return val.Decimal
	case *Amount:
		return val.Dec()
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val)
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt32(val)
	case int64:
		return decimal.NewFromInt(val)
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(val)), 0)
	case uint32:
		return decimal.NewFromInt(int64(val))
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0)
	case json.Number:
		return coerceJSON([]byte(val))
	case string:
		return parseLenient(val)
	default:
		return decimal.Zero
	}
}

package dataset

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Unavailable is rendered in report rows in place of a missing or invalid date.
const Unavailable = "unavailable"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Date is a timestamp decoded leniently. An unparsable value yields the zero
// Date, which reports Valid() == false.
type Date struct {
	time.Time
}

// ParseDate reads s with the supported layouts.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

// DateOf wraps t.
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// Valid reports whether the date was present and parsable.
func (d Date) Valid() bool {
	return !d.Time.IsZero()
}

// Before orders invalid dates as the earliest instant.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After orders invalid dates as the earliest instant.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// String renders the date, or Unavailable when invalid.
func (d Date) String() string {
	if !d.Valid() {
		return Unavailable
	}
	if isMidnight(d.Time) {
		return d.Time.Format("2006-01-02")
	}
	return d.Time.Format(time.RFC3339)
}

// MarshalJSON writes null for invalid dates.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts strings and epoch milliseconds. It never fails.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*d = Date{}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*d = ParseDate(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		ms := coerceJSON(data)
		if ms.IsPositive() {
			*d = Date{Time: time.UnixMilli(ms.IntPart()).UTC()}
		}
	}
	return nil
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

package dataset

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID identifies a record. Hand-edited datasets mix string and numeric ids, so
// both decode to the same textual form.
type ID string

// UnmarshalJSON accepts strings and numbers; anything else yields "".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*id = ""
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*id = ID(strings.TrimSpace(s))
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*id = ID(data)
	}
	return nil
}

// String returns the id text.
func (id ID) String() string {
	return string(id)
}

// Empty reports whether the id is missing.
func (id ID) Empty() bool {
	return strings.TrimSpace(string(id)) == ""
}

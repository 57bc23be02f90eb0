package record

import (
	"encoding/json"
	"strings"
)

// Opt is an optional attribute value. The zero value is unset.
type Opt struct {
	v     string
	valid bool
}

// Some returns a set value, even when s is empty. Use Parse for raw input.
func Some(s string) Opt { return Opt{v: s, valid: true} }

// None returns an unset value.
func None() Opt { return Opt{} }

// absent lists raw spellings a spreadsheet export uses for a missing cell.
var absent = map[string]struct{}{
	"nan":  {},
	"null": {},
	"none": {},
	"<na>": {},
}

// Parse converts a raw cell into an Opt. Blank cells and the usual
// not-a-number spellings are unset.
func Parse(raw string) Opt {
	s := strings.TrimSpace(raw)
	if s == "" {
		return None()
	}
	if _, ok := absent[strings.ToLower(s)]; ok {
		return None()
	}
	return Some(s)
}

// Get returns the value and whether it is set.
func (o Opt) Get() (string, bool) { return o.v, o.valid }

// String returns the value, or "" when unset.
func (o Opt) String() string { return o.v }

// Valid reports whether the value is set.
func (o Opt) Valid() bool { return o.valid }

// IsZero lets `omitzero` drop unset values from JSON output.
func (o Opt) IsZero() bool { return !o.valid }

// MarshalJSON encodes unset values as null.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON accepts null, strings and numbers.
func (o *Opt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = Parse(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = Parse(n.String())
	return nil
}

// CanonicalKey normalises a numeric natural key. Spreadsheet exports
// promote integer columns to floats, so "7.0" and "7" name the same row.
// Only an all-zero fraction after an integer is stripped; every other key
// is returned trimmed and otherwise untouched.
func CanonicalKey(raw string) string {
	s := strings.TrimSpace(raw)
	i := strings.IndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return s
	}
	if !isDigits(strings.TrimPrefix(s[:i], "-")) || strings.Trim(s[i+1:], "0") != "" {
		return s
	}
	return s[:i]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

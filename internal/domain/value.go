package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind enumerates the closed set of payload value types.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindArray
)

// Value is a tagged union over the types a record payload may hold.
// Record payloads are maps from field name to Value; anything outside
// this set is rejected at the store boundary.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	List []Value
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// String returns a string value.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// Boolean returns a boolean value.
func Boolean(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Timestamp returns a time value.
func Timestamp(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// Array returns an array value.
func Array(items ...Value) Value {
	return Value{Kind: KindArray, List: items}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// UnmarshalJSON decodes a JSON value into the matching variant.
// JSON has no date type, so timestamps arrive as strings; the
// validation engine normalizes date/datetime fields to KindTime.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return fmt.Errorf("empty value")
	}
	if trimmed == "null" {
		*v = Null()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Boolean(b)
	case '[':
		var items []Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = Value{Kind: KindArray, List: items}
	case '{':
		return fmt.Errorf("objects are not supported as field values")
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
	}

	return nil
}

// MarshalJSON encodes the variant back to its JSON representation.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	case KindArray:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// Equal reports whether two values are equal. Time values compare
// equal to their RFC 3339 string form so rule conditions written
// against raw payloads keep matching after normalization.
func (v Value) Equal(other Value) bool {
	a, b := v, other
	if a.Kind == KindTime && b.Kind == KindString {
		a = String(a.Time.Format(time.RFC3339))
	}
	if b.Kind == KindTime && a.Kind == KindString {
		b = String(b.Time.Format(time.RFC3339))
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindNull:
		return true
	case KindString:
		return a.Str == b.Str
	case KindNumber:
		return a.Num == b.Num
	case KindBool:
		return a.Bool == b.Bool
	case KindTime:
		return a.Time.Equal(b.Time)
	case KindArray:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !a.List[i].Equal(b.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values. The second return is false when the
// values are not comparable (mixed kinds, arrays, nulls).
func (v Value) Compare(other Value) (int, bool) {
	switch {
	case v.Kind == KindNumber && other.Kind == KindNumber:
		switch {
		case v.Num < other.Num:
			return -1, true
		case v.Num > other.Num:
			return 1, true
		}
		return 0, true
	case v.Kind == KindString && other.Kind == KindString:
		return strings.Compare(v.Str, other.Str), true
	case v.Kind == KindTime && other.Kind == KindTime:
		switch {
		case v.Time.Before(other.Time):
			return -1, true
		case v.Time.After(other.Time):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Contains reports whether the value contains the other: substring
// match for strings, element match for arrays.
func (v Value) Contains(other Value) bool {
	switch v.Kind {
	case KindString:
		return other.Kind == KindString && strings.Contains(v.Str, other.Str)
	case KindArray:
		for _, item := range v.List {
			if item.Equal(other) {
				return true
			}
		}
	}
	return false
}

// Text renders the value for template substitution.
func (v Value) Text() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	case KindArray:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// Payload is a record's semi-structured data: field name to value.
type Payload map[string]Value

// Clone returns a copy safe for diffing against later mutations.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns the value for a field, or null when absent.
func (p Payload) Get(field string) Value {
	if v, ok := p[field]; ok {
		return v
	}
	return Null()
}

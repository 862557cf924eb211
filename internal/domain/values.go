package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ValueKind tags the content of a cell.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
)

// Value is a single cell as delivered by the spreadsheet parser: a string,
// a number, or nothing.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// Empty returns the empty cell.
func Empty() Value { return Value{} }

// String wraps a text cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsEmpty reports whether the cell is empty. An empty string counts as empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty || (v.kind == KindString && v.str == "")
}

// Key is the join-key form of the cell. Empty cells map to "".
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Amount is the numeric form of the cell. Whitespace is stripped and the
// first decimal comma becomes a dot; anything that still isn't a finite
// number yields 0.
func (v Value) Amount() float64 {
	switch v.kind {
	case KindNumber:
		return finiteOrZero(v.num)
	case KindString:
		return ParseAmount(v.str)
	default:
		return 0
	}
}

// ParseAmount normalizes a raw amount string. See Value.Amount.
func ParseAmount(s string) float64 {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(f)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (v Value) String() string { return v.Key() }

// MarshalJSON encodes the cell as null, a JSON string or a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(finiteOrZero(v.num))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers and booleans (kept as text).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Empty()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		*v = String(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("unsupported cell value %s", data)
		}
		*v = Number(f)
	}
	return nil
}

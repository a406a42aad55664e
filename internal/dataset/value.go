package dataset

// value.go defines the cell value type and its coercion helpers.
//
// Cells hold one of four kinds: integer, floating-point, text, or null.
// All coercion used by validation and type conversion funnels through
// Numeric and IntegerForm so the rule engine and the transformer agree on
// what parses and what does not.

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the runtime type of a cell value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

// integerRegex matches an optional leading minus sign followed by decimal
// digits with nothing else.
var integerRegex = regexp.MustCompile(`^-?\d+$`)

// Value is a single cell: a tagged union over int64, float64, string, or null.
// The zero Value is null.
type Value struct {
	Kind  Kind
	Int64 int64
	F64   float64
	Str   string
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Int returns an integer value.
func Int(i int64) Value {
	return Value{Kind: KindInt, Int64: i}
}

// Float returns a floating-point value.
func Float(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{Kind: KindText, Str: s}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// StringForm renders the value the way it would appear in a cell.
// Null renders as the empty string.
func (v Value) StringForm() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'f', -1, 64)
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// Numeric coerces the value to a float64. Text is parsed after trimming
// whitespace; null and non-parseable text report ok=false.
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int64), true
	case KindFloat:
		return v.F64, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IntegerForm reports whether the value's string form is a bare decimal
// integer (optional leading minus, digits, nothing else). Null values
// never match.
func (v Value) IntegerForm() bool {
	if v.IsNull() {
		return false
	}
	return integerRegex.MatchString(v.StringForm())
}

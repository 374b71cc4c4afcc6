package models

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the raw-value tagged union produced at the
// source boundary. Raw CSV values are dynamically typed; they are
// resolved into one of these kinds exactly once, during profiling, and
// never type-sniffed ad hoc downstream.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindBool
)

// Value is a raw cell value: null, number, text or boolean.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Null returns the null value
func Null() Value { return Value{Kind: KindNull} }

// Number returns a numeric value
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text returns a text value
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Boolean returns a boolean value
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the value is null
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the canonical string form of the value, used as the
// key for distinct counting and top-K frequency tracking.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// AsNumber attempts to interpret the value as a number
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(v.Str, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool attempts to interpret the value as a boolean
func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true
	case KindText:
		switch v.Str {
		case "true", "TRUE", "True", "t", "T", "yes", "YES", "Yes", "y", "Y":
			return true, true
		case "false", "FALSE", "False", "f", "F", "no", "NO", "No", "n", "N":
			return false, true
		}
	}
	return false, false
}

// GoString aids debugging output in tests
func (v Value) GoString() string {
	switch v.Kind {
	case KindNull:
		return "Null()"
	case KindNumber:
		return fmt.Sprintf("Number(%v)", v.Num)
	case KindBool:
		return fmt.Sprintf("Boolean(%v)", v.Bool)
	default:
		return fmt.Sprintf("Text(%q)", v.Str)
	}
}

// Row maps column names to raw values for a single record
type Row map[string]Value

package models

import (
	"strconv"
	"strings"
)

// Kind discriminates the variants a Value can hold.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a frontmatter or database cell value. Only the field matching
// Kind is meaningful. The zero Value is absent.
type Value struct {
	Kind    Kind
	Text    string
	Number  float64
	Integer bool // Number was parsed from an integral literal
	Bool    bool
	List    []string
}

// Absent returns the explicit "no value" marker.
func Absent() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Int returns an integral number value.
func Int(n int64) Value { return Value{Kind: KindNumber, Number: float64(n), Integer: true} }

// Float returns a floating-point number value.
func Float(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// List returns a list value. The slice is copied.
func List(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{Kind: KindList, List: cp}
}

// IsAbsent reports whether v carries no value.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// String renders the plain display form: booleans lowercase, lists
// comma-joined, absent as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		if v.Integer {
			return strconv.FormatInt(int64(v.Number), 10)
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindList:
		return strings.Join(v.List, ", ")
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Text == o.Text
	case KindNumber:
		return v.Number == o.Number && v.Integer == o.Integer
	case KindBoolean:
		return v.Bool == o.Bool
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

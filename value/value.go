// Package value defines the tagged values stored in a cube.
//
// Dimension fields may hold any kind; metric fields must be numeric (KindInt or
// KindFloat). Values are small, comparable through Key, and cheap to copy.
package value

import (
	"fmt"
	"math"
	"strconv"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind. It is never produced by the constructors.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindString represents a string value.
	KindString
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindBool represents a boolean value.
	KindBool
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a small typed value used for dimension and metric fields.
//
// String payloads are interned, so repeated dimension values share storage.
// The zero Value has KindInvalid.
type Value struct {
	kind Kind
	i64  int64
	f64  float64
	s    unique.Handle[string]
	b    bool
}

// Key is the comparable identity of a Value.
//
// Two values have the same key iff they are the same kind and hold the same
// payload. All NaN payloads share one key.
type Key struct {
	kind Kind
	bits uint64
	s    unique.Handle[string]
}

var canonicalNaN = math.Float64bits(math.NaN())

// Null returns a null Value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: unique.Make(v)} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{kind: KindInt, i64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{kind: KindFloat, f64: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Of converts a Go value into a Value.
//
// Supported inputs are nil, string, bool, all integer kinds, float32, float64
// and Value itself.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return uintValue(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported type %T", v)
	}
}

// MustOf is like Of but panics on unsupported input.
func MustOf(v any) Value {
	val, err := Of(v)
	if err != nil {
		panic(err)
	}
	return val
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, fmt.Errorf("value: %d overflows int64", v)
	}
	return Int(int64(v)), nil
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was produced by a constructor.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNumeric reports whether v is an Int or a Float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Key returns the comparable identity of v.
func (v Value) Key() Key {
	switch v.kind {
	case KindString:
		return Key{kind: KindString, s: v.s}
	case KindInt:
		return Key{kind: KindInt, bits: uint64(v.i64)}
	case KindFloat:
		if math.IsNaN(v.f64) {
			return Key{kind: KindFloat, bits: canonicalNaN}
		}
		if v.f64 == 0 {
			// -0 and +0 compare equal.
			return Key{kind: KindFloat}
		}
		return Key{kind: KindFloat, bits: math.Float64bits(v.f64)}
	case KindBool:
		if v.b {
			return Key{kind: KindBool, bits: 1}
		}
		return Key{kind: KindBool}
	default:
		return Key{kind: v.kind}
	}
}

// Equal reports whether v and o have the same key.
func (v Value) Equal(o Value) bool { return v.Key() == o.Key() }

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i64, true
}

// AsFloat64 returns the numeric value of an Int or Float.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f64, true
	case KindInt:
		return float64(v.i64), true
	default:
		return 0, false
	}
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String renders the value without type decoration. It is used to derive
// column names, so it must stay stable.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.s.Value()
	case KindInt:
		return strconv.FormatInt(v.i64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

// GoString implements fmt.GoStringer and makes test failures readable.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s.Value())
	default:
		return v.kind.String() + "(" + v.String() + ")"
	}
}

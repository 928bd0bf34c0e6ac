package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a record property value.
// Only Null, String, Int, Float, Bool, and List implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an absent or SQL NULL property.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) value() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a floating point value.
type Float float64

func (Float) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// List represents an ordered list of values. Used as the right-hand side
// of IN comparisons.
type List []Value

func (List) value() {}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = Native(v)
	}
	return json.Marshal(out)
}

// numericPattern matches decimal numeric strings (leading/trailing
// whitespace is trimmed before matching).
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// From converts a Go native value into a Value.
//
// Supported inputs: nil, Value, bool, string, all int/uint kinds,
// float32/float64, json.Number, []any and []Value. Anything else is an
// error.
func From(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	case []byte:
		return String(val), nil
	case []Value:
		return List(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			conv, err := From(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = conv
		}
		return list, nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			list := make(List, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				conv, err := From(rv.Index(i).Interface())
				if err != nil {
					return nil, fmt.Errorf("list[%d]: %w", i, err)
				}
				list[i] = conv
			}
			return list, nil
		}
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// MustFrom is like From but panics on unsupported input.
// Intended for literals in tests and static configuration.
func MustFrom(v any) Value {
	conv, err := From(v)
	if err != nil {
		panic(err)
	}
	return conv
}

// Native converts a Value back into a plain Go value
// (nil, string, int64, float64, bool, []any).
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	default:
		return nil
	}
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

// Truthy reports the boolean interpretation of v.
// Null, false, 0, 0.0, "", "0" and the empty list are false.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		return val != 0
	case String:
		return val != "" && val != "0"
	case List:
		return len(val) > 0
	default:
		return false
	}
}

// Format renders v the way it compares against strings.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		if val {
			return "1"
		}
		return ""
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numeric returns the numeric interpretation of v, if it has one.
// Strings count as numeric only when they are fully numeric.
func numeric(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	case String:
		s := strings.TrimSpace(string(val))
		if !numericPattern.MatchString(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Package jsonval implements the dynamic JSON value the learning pipeline
// operates on: a tagged union instead of raw interface{}, so every consumer
// (schema learner, generator, drift detector) walks one concrete type.
package jsonval

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the sum type Null | Bool | Num | Str | Arr[Value] | Obj[Str,Value].
// Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	B    bool
	N    float64
	S    string
	Arr  []Value
	Obj  map[string]Value
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBool, B: b} }
func Number(n float64) Value  { return Value{Kind: KindNumber, N: n} }
func String(s string) Value   { return Value{Kind: KindString, S: s} }
func Array(v []Value) Value   { return Value{Kind: KindArray, Arr: v} }
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: KindObject, Obj: m}
}

// Parse decodes raw JSON bytes into a Value.
func Parse(raw []byte) (Value, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, err
	}
	return Wrap(v), nil
}

// Wrap converts a value produced by encoding/json (interface{}) into Value.
func Wrap(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = Wrap(e)
		}
		return Array(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = Wrap(e)
		}
		return Object(out)
	default:
		return Null()
	}
}

// Unwrap converts a Value back to the interface{} shape encoding/json expects.
func (v Value) Unwrap() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.B
	case KindNumber:
		return v.N
	case KindString:
		return v.S
	case KindArray:
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.Unwrap()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Obj))
		for k, e := range v.Obj {
			out[k] = e.Unwrap()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON lets a Value be encoded directly as JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Unwrap())
}

// UnmarshalJSON lets a Value be decoded directly from JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Wrap(raw)
	return nil
}

// Get looks up a field on an object Value, returning (zero Value, false) for
// anything that isn't an object or doesn't have the field.
func (v Value) Get(field string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	child, ok := v.Obj[field]
	return child, ok
}

// SortedKeys returns an object's field names in a deterministic order.
func (v Value) SortedKeys() []string {
	if v.Kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.Obj))
	for k := range v.Obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsPrimitive reports whether the value is a scalar (not object/array).
func (v Value) IsPrimitive() bool {
	return v.Kind != KindObject && v.Kind != KindArray
}

// String formats a Value for debugging/logging.
func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<jsonval error: %v>", err)
	}
	return string(b)
}

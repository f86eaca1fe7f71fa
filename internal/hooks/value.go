package hooks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

// Value variants, in decode order.
const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is a closed recursive representation of arbitrary JSON: null, bool,
// integer, float, string, array of Value, or string-keyed map of Value.
// Tool inputs and responses arrive in whatever shape the producing tool
// chose, so they decode through this instead of concrete structs.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Constructors.

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a slice of Values.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Object wraps a map of Values.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Kind returns the variant this Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the Value is null (including the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the bool variant and whether the Value holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer variant and whether the Value holds one.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float variant and whether the Value holds one.
// Integers are not coerced; `5` and `5.0` decode to different variants.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string variant and whether the Value holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the array variant and whether the Value holds one.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the object variant and whether the Value holds one.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Get looks up a key on an object Value. Returns Null for non-objects
// and missing keys.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Null()
	}
	return v.obj[key]
}

// StringAt is a convenience for Get(key).AsString() that returns "" when
// the key is absent or not a string.
func (v Value) StringAt(key string) string {
	s, _ := v.Get(key).AsString()
	return s
}

// BoolAt is a convenience for Get(key).AsBool() that returns false when
// the key is absent or not a bool.
func (v Value) BoolAt(key string) bool {
	b, _ := v.Get(key).AsBool()
	return b
}

// UnmarshalJSON decodes a Value by attempting each variant in a fixed order:
// null → bool → int → float → string → array → object. The first successful
// match wins. The ordering matters: "5" must stay a string while 5 becomes
// an integer, and 5.5 must not be truncated to 5.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Null()
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}

	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*v = Int(i)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Float(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}

	var rawArr []json.RawMessage
	if err := json.Unmarshal(data, &rawArr); err == nil {
		arr := make([]Value, len(rawArr))
		for idx, raw := range rawArr {
			if err := arr[idx].UnmarshalJSON(raw); err != nil {
				return err
			}
		}
		*v = Value{kind: KindArray, arr: arr}
		return nil
	}

	var rawObj map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawObj); err == nil {
		obj := make(map[string]Value, len(rawObj))
		for key, raw := range rawObj {
			var elem Value
			if err := elem.UnmarshalJSON(raw); err != nil {
				return err
			}
			obj[key] = elem
		}
		*v = Value{kind: KindObject, obj: obj}
		return nil
	}

	return fmt.Errorf("value does not match any JSON variant: %s", truncateForError(trimmed))
}

// MarshalJSON encodes the Value back to its JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// String renders a compact human-readable form for logs and menu titles.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func truncateForError(s string) string {
	const limit = 80
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// Package raw wraps loosely shaped payload values (decoded JSON or
// Firestore document data) in a tagged variant so that normalizers switch on
// an explicit Kind instead of probing interface{} values.
package raw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	Absent Kind = iota
	String
	Number
	Bool
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "absent"
	}
}

// Value is immutable once built. The zero Value is Absent.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	obj  map[string]Value
	arr  []Value
}

func Str(s string) Value { return Value{kind: String, s: s} }

func Num(n float64) Value { return Value{kind: Number, n: n} }

func Boolean(b bool) Value { return Value{kind: Bool, b: b} }

func Obj(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: Object, obj: m}
}

func Arr(items ...Value) Value { return Value{kind: Array, arr: items} }

// From converts a decoded value. Unsupported types become Absent; a nil map
// or slice is still an (empty) Object or Array.
func From(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return Str(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}
		}
		return Num(f)
	case float64:
		return Num(t)
	case float32:
		return Num(float64(t))
	case int:
		return Num(float64(t))
	case int32:
		return Num(float64(t))
	case int64:
		return Num(float64(t))
	case uint:
		return Num(float64(t))
	case uint32:
		return Num(float64(t))
	case uint64:
		return Num(float64(t))
	case bool:
		return Boolean(t)
	case time.Time:
		if t.IsZero() {
			return Value{}
		}
		return Str(t.UTC().Format(time.RFC3339Nano))
	case *time.Time:
		if t == nil {
			return Value{}
		}
		return From(*t)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = From(e)
		}
		return Obj(m)
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = Str(e)
		}
		return Obj(m)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = From(e)
		}
		return Value{kind: Array, arr: items}
	case []string:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = Str(e)
		}
		return Value{kind: Array, arr: items}
	case []map[string]any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = From(e)
		}
		return Value{kind: Array, arr: items}
	default:
		return Value{}
	}
}

// Parse decodes a JSON document. Numbers keep full precision until they are
// converted to float64.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, fmt.Errorf("decode payload: %w", err)
	}
	return From(v), nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == Absent }

// AsString returns the string payload of a String value.
func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the numeric payload of a Number value, or of a String
// holding a plain decimal number.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case Number:
		return v.n, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// Get returns the named field of an Object, or Absent.
func (v Value) Get(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	return v.obj[key]
}

// Path walks nested objects.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur.kind == Absent {
			return cur
		}
	}
	return cur
}

// Truthy follows the loose semantics payload producers rely on: absent,
// empty or blank strings, zero, false and null are false; objects and arrays
// are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case String:
		return strings.TrimSpace(v.s) != ""
	case Number:
		return v.n != 0
	case Bool:
		return v.b
	case Object, Array:
		return true
	default:
		return false
	}
}

// First returns the first truthy field among keys.
func (v Value) First(keys ...string) Value {
	for _, k := range keys {
		if f := v.Get(k); f.Truthy() {
			return f
		}
	}
	return Value{}
}

// Text returns the first non-blank string field among keys, trimmed.
func (v Value) Text(keys ...string) string {
	for _, k := range keys {
		if s, ok := v.Get(k).AsString(); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// Items returns the elements of an Array, nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.arr
}

// Keys returns the sorted field names of an Object.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of an Object with key set. Non-objects are returned
// unchanged.
func (v Value) With(key string, field Value) Value {
	if v.kind != Object {
		return v
	}
	m := make(map[string]Value, len(v.obj)+1)
	for k, e := range v.obj {
		m[k] = e
	}
	m[key] = field
	return Obj(m)
}

// Interface converts back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.s
	case Number:
		return v.n
	case Bool:
		return v.b
	case Object:
		m := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Interface()
		}
		return m
	case Array:
		items := make([]any, len(v.arr))
		for i, e := range v.arr {
			items[i] = e.Interface()
		}
		return items
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// List unwraps a collection payload: a bare array, or an object carrying the
// array under the first of keys that holds one. Anything else is empty.
func List(payload Value, keys ...string) []Value {
	if payload.kind == Array {
		return payload.arr
	}
	for _, k := range keys {
		if f := payload.Get(k); f.kind == Array {
			return f.arr
		}
	}
	return nil
}

package codec

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire type tag of a Value.
type Kind uint8

const (
	KindNull        Kind = 0
	KindTrue        Kind = 1
	KindFalse       Kind = 2
	KindInt32       Kind = 3
	KindInt64       Kind = 4
	KindFloat64     Kind = 6
	KindString      Kind = 7
	KindUint8List   Kind = 8
	KindInt32List   Kind = 9
	KindInt64List   Kind = 10
	KindFloat64List Kind = 11
	KindList        Kind = 12
	KindMap         Kind = 13
	KindFloat32List Kind = 14
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindTrue, KindFalse:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindUint8List:
		return "uint8list"
	case KindInt32List:
		return "int32list"
	case KindInt64List:
		return "int64list"
	case KindFloat64List:
		return "float64list"
	case KindFloat32List:
		return "float32list"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one decoded message value. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	raw  []byte
	i32s []int32
	i64s []int64
	f64s []float64
	f32s []float32
	list []Value
	m    []Entry
}

// Entry is one key/value pair of a map Value. Entries keep wire order.
type Entry struct {
	Key Value
	Val Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value {
	if b {
		return Value{kind: KindTrue}
	}
	return Value{kind: KindFalse}
}

func Int32(v int32) Value     { return Value{kind: KindInt32, i: int64(v)} }
func Int64(v int64) Value     { return Value{kind: KindInt64, i: v} }
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }
func String(s string) Value   { return Value{kind: KindString, s: s} }

func Uint8List(b []byte) Value        { return Value{kind: KindUint8List, raw: b} }
func Int32List(v []int32) Value       { return Value{kind: KindInt32List, i32s: v} }
func Int64List(v []int64) Value       { return Value{kind: KindInt64List, i64s: v} }
func Float64List(v []float64) Value   { return Value{kind: KindFloat64List, f64s: v} }
func Float32List(v []float32) Value   { return Value{kind: KindFloat32List, f32s: v} }
func List(items ...Value) Value       { return Value{kind: KindList, list: items} }
func Map(entries ...Entry) Value      { return Value{kind: KindMap, m: entries} }
func Field(key string, v Value) Entry { return Entry{Key: String(key), Val: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindTrue:
		return true, true
	case KindFalse:
		return false, true
	}
	return false, false
}

// AsInt accepts both integer widths.
func (v Value) AsInt() (int64, bool) {
	if v.kind == KindInt32 || v.kind == KindInt64 {
		return v.i, true
	}
	return 0, false
}

func (v Value) AsFloat64() (float64, bool) {
	if v.kind != KindFloat64 {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsMap() ([]Entry, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Get looks up a string key in a map Value. It reports false when v is not a
// map or the key is missing.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.m {
		if s, ok := e.Key.AsString(); ok && s == key {
			return e.Val, true
		}
	}
	return Value{}, false
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []byte, typed slices, []any and map[string]any. Map keys that are
// not strings are formatted with %v.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindTrue:
		return true
	case KindFalse:
		return false
	case KindInt32, KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindUint8List:
		return v.raw
	case KindInt32List:
		return v.i32s
	case KindInt64List:
		return v.i64s
	case KindFloat64List:
		return v.f64s
	case KindFloat32List:
		return v.f32s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for _, e := range v.m {
			key, ok := e.Key.AsString()
			if !ok {
				key = fmt.Sprintf("%v", e.Key.Interface())
			}
			out[key] = e.Val.Interface()
		}
		return out
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// FromGo builds a Value from plain Go data such as decoded JSON. Integers
// become int32 when they fit and int64 otherwise; whole float64 numbers from
// JSON are treated as integers.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return fromInt(int64(t)), nil
	case int32:
		return Int32(t), nil
	case int64:
		return fromInt(t), nil
	case float64:
		if t == float64(int64(t)) && t >= -1<<53 && t <= 1<<53 {
			return fromInt(int64(t)), nil
		}
		return Float64(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Uint8List(t), nil
	case []int32:
		return Int32List(t), nil
	case []int64:
		return Int64List(t), nil
	case []float64:
		return Float64List(t), nil
	case []float32:
		return Float32List(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		entries := make([]Entry, 0, len(t))
		for _, k := range sortedKeys(t) {
			v, err := FromGo(t[k])
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Field(k, v))
		}
		return Map(entries...), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedGoType, x)
}

func fromInt(i int64) Value {
	if i >= -1<<31 && i < 1<<31 {
		return Int32(int32(i))
	}
	return Int64(i)
}

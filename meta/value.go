// Package meta defines typed attribute values and their string-tagged
// persisted form.
package meta

import (
	"bytes"
	"fmt"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindTime
	KindString
	KindInt
	KindFloat
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged attribute value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	t    time.Time
	s    string
	i    int64
	f    float64
	raw  []byte
}

func Null() Value { return Value{} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func Int(v int64) Value { return Value{kind: KindInt, i: v} }

func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

func Bytes(v []byte) Value { return Value{kind: KindBytes, raw: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() bool { return v.b }

func (v Value) AsTime() time.Time { return v.t }

func (v Value) AsString() string { return v.s }

func (v Value) AsInt() int64 { return v.i }

func (v Value) AsFloat() float64 { return v.f }

func (v Value) AsBytes() []byte { return v.raw }

// Of converts a Go value into a Value.
func Of(v any) (Value, error) {
	switch actual := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return actual, nil
	case bool:
		return Bool(actual), nil
	case time.Time:
		return Time(actual), nil
	case string:
		return String(actual), nil
	case []byte:
		return Bytes(actual), nil
	case int:
		return Int(int64(actual)), nil
	case int8:
		return Int(int64(actual)), nil
	case int16:
		return Int(int64(actual)), nil
	case int32:
		return Int(int64(actual)), nil
	case int64:
		return Int(actual), nil
	case uint8:
		return Int(int64(actual)), nil
	case uint16:
		return Int(int64(actual)), nil
	case uint32:
		return Int(int64(actual)), nil
	case float32:
		return Float(float64(actual)), nil
	case float64:
		return Float(actual), nil
	case fmt.Stringer:
		return String(actual.String()), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupported, v)
}

// Interface returns the Go value held by v; null yields nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBytes:
		return v.raw
	}
	return nil
}

// Equal compares kind and payload; times compare by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	}
	return true
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}
	if v.kind == KindTime {
		return v.t.Format(TimeLayout)
	}
	return fmt.Sprint(v.Interface())
}

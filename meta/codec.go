package meta

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// BoolPrefix tags persisted booleans, e.g. "bool:True".
	BoolPrefix = "bool:"
	// TimePrefix tags persisted timestamps, e.g. "datetime:2024-01-02 03:04:05.000006".
	TimePrefix = "datetime:"
	// TimeLayout is the only timestamp layout written and accepted.
	TimeLayout = "2006-01-02 15:04:05.000000"
)

// Encode maps a Value onto its persisted form. Null becomes an empty string,
// booleans and timestamps become prefixed strings (timestamps in UTC), all
// other kinds pass through unchanged.
func Encode(v Value) Value {
	switch v.kind {
	case KindNull:
		return String("")
	case KindBool:
		if v.b {
			return String(BoolPrefix + "True")
		}
		return String(BoolPrefix + "False")
	case KindTime:
		return String(TimePrefix + v.t.UTC().Format(TimeLayout))
	}
	return v
}

// Decode is the inverse of Encode. Strings and bytes of length zero decode
// to null; values without a recognized prefix pass through unchanged.
func Decode(v Value) (Value, error) {
	switch v.kind {
	case KindBytes:
		if len(v.raw) == 0 {
			return Null(), nil
		}
		return v, nil
	case KindString:
	default:
		return v, nil
	}
	if v.s == "" {
		return Null(), nil
	}
	if rest, ok := strings.CutPrefix(v.s, BoolPrefix); ok {
		b, err := strconv.ParseBool(rest)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bool %q: %v", ErrMalformed, rest, err)
		}
		return Bool(b), nil
	}
	if rest, ok := strings.CutPrefix(v.s, TimePrefix); ok {
		t, err := time.Parse(TimeLayout, rest)
		if err != nil {
			return Value{}, fmt.Errorf("%w: datetime %q: %v", ErrMalformed, rest, err)
		}
		return Time(t), nil
	}
	return v, nil
}

// Namespace prefixes key when namespaced is set.
func Namespace(prefix, key string, namespaced bool) string {
	if namespaced {
		return prefix + key
	}
	return key
}

// StripNamespace removes prefix from key if present.
func StripNamespace(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix)
}

package ndarray

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType identifies the element type of an Array.
type DType uint8

const (
	Invalid DType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// Number lists the Go element types an Array can hold.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

var dtypeNames = map[DType]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// Valid reports whether d is a known element type.
func (d DType) Valid() bool {
	_, ok := dtypeNames[d]
	return ok
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// IsFloat reports whether d is a floating point type.
func (d DType) IsFloat() bool {
	return d == Float32 || d == Float64
}

// ParseDType returns the DType for a name such as "float64".
func ParseDType(name string) (DType, error) {
	for k, v := range dtypeNames {
		if v == name {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrDType, name)
}

// DTypeOf returns the DType matching T. Plain int and uint map to their 64-bit forms.
func DTypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64, int:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64, uint:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return kindDType(zero)
}

var le = binary.LittleEndian

func loadFloat(d DType, b []byte) float64 {
	switch d {
	case Float32:
		return float64(math.Float32frombits(le.Uint32(b)))
	case Float64:
		return math.Float64frombits(le.Uint64(b))
	case Uint8, Uint16, Uint32, Uint64:
		return float64(loadUint(d, b))
	}
	return float64(loadInt(d, b))
}

func loadInt(d DType, b []byte) int64 {
	switch d {
	case Int8:
		return int64(int8(b[0]))
	case Int16:
		return int64(int16(le.Uint16(b)))
	case Int32:
		return int64(int32(le.Uint32(b)))
	case Int64:
		return int64(le.Uint64(b))
	case Uint8, Uint16, Uint32, Uint64:
		return int64(loadUint(d, b))
	}
	return int64(loadFloat(d, b))
}

func loadUint(d DType, b []byte) uint64 {
	switch d {
	case Uint8:
		return uint64(b[0])
	case Uint16:
		return uint64(le.Uint16(b))
	case Uint32:
		return uint64(le.Uint32(b))
	case Uint64:
		return le.Uint64(b)
	}
	return uint64(loadInt(d, b))
}

func storeFloat(d DType, b []byte, v float64) {
	switch d {
	case Float32:
		le.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		le.PutUint64(b, math.Float64bits(v))
	default:
		storeInt(d, b, int64(v))
	}
}

func storeInt(d DType, b []byte, v int64) {
	switch d {
	case Int8, Uint8:
		b[0] = byte(v)
	case Int16, Uint16:
		le.PutUint16(b, uint16(v))
	case Int32, Uint32:
		le.PutUint32(b, uint32(v))
	case Int64, Uint64:
		le.PutUint64(b, uint64(v))
	default:
		storeFloat(d, b, float64(v))
	}
}

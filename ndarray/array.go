package ndarray

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

// Array is a dense, C-ordered n-dimensional array of fixed-size elements.
// Elements are kept little-endian in a flat byte slice so that arrays of any
// dtype can be sliced, concatenated and persisted without type switches.
type Array struct {
	dtype DType
	shape []int
	data  []byte
}

// New builds an array from values laid out in C order. Without a shape the
// array is one dimensional.
func New[T Number](values []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	if Volume(shape) != len(values) {
		return nil, fmt.Errorf("%w: %d values do not fill shape %v", ErrShape, len(values), shape)
	}
	dtype := DTypeOf[T]()
	ret := Zeros(dtype, shape...)
	if platformSized[T]() {
		for i, v := range values {
			storeInt(dtype, ret.data[i*8:], int64(v))
		}
		return ret, nil
	}
	if _, err := binary.Encode(ret.data, le, values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return ret, nil
}

// MustNew is New for literals in tests and examples; it panics on error.
func MustNew[T Number](values []T, shape ...int) *Array {
	ret, err := New(values, shape...)
	if err != nil {
		panic(err)
	}
	return ret
}

// Zeros returns a zero filled array.
func Zeros(dtype DType, shape ...int) *Array {
	return &Array{
		dtype: dtype,
		shape: slices.Clone(shape),
		data:  make([]byte, Volume(shape)*dtype.Size()),
	}
}

// Empty returns the one dimensional, zero length float64 array.
func Empty() *Array {
	return Zeros(Float64, 0)
}

// FromBytes wraps raw little-endian element bytes.
func FromBytes(dtype DType, shape []int, data []byte) (*Array, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrDType, dtype)
	}
	if want := Volume(shape) * dtype.Size(); want != len(data) {
		return nil, fmt.Errorf("%w: shape %v of %v needs %d bytes, got %d", ErrShape, shape, dtype, want, len(data))
	}
	return &Array{dtype: dtype, shape: slices.Clone(shape), data: data}, nil
}

// Values copies the array elements into a []T. T must match the array dtype.
func Values[T Number](a *Array) ([]T, error) {
	if want := DTypeOf[T](); want != a.dtype {
		return nil, fmt.Errorf("%w: array is %v, requested %v", ErrDType, a.dtype, want)
	}
	ret := make([]T, a.Len())
	if platformSized[T]() {
		for i := range ret {
			ret[i] = T(loadInt(a.dtype, a.data[i*8:]))
		}
		return ret, nil
	}
	if _, err := binary.Decode(a.data, le, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return ret, nil
}

// Float64s returns the elements converted to float64 regardless of dtype.
func (a *Array) Float64s() []float64 {
	size := a.dtype.Size()
	ret := make([]float64, a.Len())
	for i := range ret {
		ret[i] = loadFloat(a.dtype, a.data[i*size:])
	}
	return ret
}

func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

func (a *Array) NDim() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array) Len() int { return Volume(a.shape) }

// NBytes returns the size of the element data in bytes.
func (a *Array) NBytes() int { return len(a.data) }

// Bytes exposes the raw element bytes; callers must not modify them.
func (a *Array) Bytes() []byte { return a.data }

// Equal reports whether both arrays have the same dtype, shape and elements.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.dtype == b.dtype && slices.Equal(a.shape, b.shape) && bytes.Equal(a.data, b.data)
}

func (a *Array) String() string {
	return fmt.Sprintf("ndarray(%v, shape=%v)", a.dtype, a.shape)
}

// AsType converts elements to dtype. It returns a itself when no conversion is needed.
func (a *Array) AsType(dtype DType) *Array {
	if a.dtype == dtype {
		return a
	}
	ret := Zeros(dtype, a.shape...)
	src, dst := a.dtype.Size(), dtype.Size()
	for i := 0; i < a.Len(); i++ {
		in, out := a.data[i*src:], ret.data[i*dst:]
		switch {
		case a.dtype.IsFloat() || dtype.IsFloat():
			storeFloat(dtype, out, loadFloat(a.dtype, in))
		default:
			storeInt(dtype, out, loadInt(a.dtype, in))
		}
	}
	return ret
}

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	return &Array{dtype: a.dtype, shape: slices.Clone(a.shape), data: bytes.Clone(a.data)}
}

// Reshape returns an array sharing the same data under a new shape of equal volume.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if Volume(shape) != a.Len() {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrShape, a.shape, shape)
	}
	return &Array{dtype: a.dtype, shape: slices.Clone(shape), data: a.data}, nil
}

// Volume returns the number of elements of shape; an empty shape holds one element.
func Volume(shape []int) int {
	ret := 1
	for _, dim := range shape {
		ret *= dim
	}
	return ret
}

// NormalizeAxis maps a possibly negative axis onto [0, ndim).
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < 0 {
		axis += ndim
	}
	if axis < 0 || axis >= ndim {
		return 0, fmt.Errorf("%w: axis out of range for %d dimensions", ErrShape, ndim)
	}
	return axis, nil
}

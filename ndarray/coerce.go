package ndarray

import (
	"fmt"
	"reflect"
)

// FromValue converts v into an Array. It accepts *Array, Array and slices or
// nested slices of numbers; nested slices must be rectangular and share one
// element type.
func FromValue(v any) (*Array, error) {
	switch actual := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupported)
	case *Array:
		if actual == nil {
			return nil, fmt.Errorf("%w: nil array", ErrUnsupported)
		}
		return actual, nil
	case Array:
		return &actual, nil
	case []float64:
		return New(actual)
	case []float32:
		return New(actual)
	case []int64:
		return New(actual)
	case []int32:
		return New(actual)
	case []int:
		return New(actual)
	case []uint8:
		return New(actual)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	shape, elem, err := nestedShape(rv)
	if err != nil {
		return nil, err
	}
	dtype := kindDType(reflect.Zero(elem).Interface())
	if dtype == Invalid {
		return nil, fmt.Errorf("%w: element type %v", ErrUnsupported, elem)
	}
	ret := Zeros(dtype, shape...)
	offset := 0
	if err := flatten(rv, ret, &offset, 0); err != nil {
		return nil, err
	}
	return ret, nil
}

// nestedShape walks the first element of each level to find the shape and
// the leaf element type.
func nestedShape(rv reflect.Value) ([]int, reflect.Type, error) {
	var shape []int
	t := rv.Type()
	for {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			shape = append(shape, rv.Len())
			t = t.Elem()
			if rv.Len() == 0 {
				for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
					shape = append(shape, 0)
					t = t.Elem()
				}
				return shape, t, nil
			}
			rv = rv.Index(0)
			if rv.Kind() == reflect.Interface {
				rv = rv.Elem()
				t = rv.Type()
			}
		default:
			return shape, t, nil
		}
	}
}

func flatten(rv reflect.Value, dst *Array, offset *int, depth int) error {
	if rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if depth == len(dst.shape) {
		size := dst.dtype.Size()
		if *offset >= dst.Len() {
			return fmt.Errorf("%w: ragged nested slice", ErrShape)
		}
		out := dst.data[*offset*size:]
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			storeFloat(dst.dtype, out, rv.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			storeInt(dst.dtype, out, rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			storeInt(dst.dtype, out, int64(rv.Uint()))
		default:
			return fmt.Errorf("%w: element kind %v", ErrUnsupported, rv.Kind())
		}
		*offset++
		return nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("%w: ragged nested slice", ErrShape)
	}
	if rv.Len() != dst.shape[depth] {
		return fmt.Errorf("%w: ragged nested slice at depth %d: %d != %d", ErrShape, depth, rv.Len(), dst.shape[depth])
	}
	for i := 0; i < rv.Len(); i++ {
		if err := flatten(rv.Index(i), dst, offset, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func kindDType(v any) DType {
	if v == nil {
		return Invalid
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64, reflect.Int:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64, reflect.Uint:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return Invalid
}

// platformSized reports whether T is int or uint based, which encoding/binary
// cannot handle.
func platformSized[T Number]() bool {
	var zero T
	kind := reflect.TypeOf(zero).Kind()
	return kind == reflect.Int || kind == reflect.Uint
}

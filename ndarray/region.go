package ndarray

import (
	"fmt"
	"slices"
)

// CopyRegion copies a box of count elements per dimension from src, starting
// at srcOffset, into dst starting at dstOffset. Both buffers are C ordered
// with the given shapes and element size. Contiguous runs along the last
// dimension are copied with a single copy call.
func CopyRegion(dst []byte, dstShape, dstOffset []int, src []byte, srcShape, srcOffset []int, count []int, elemSize int) {
	ndim := len(count)
	if ndim == 0 {
		copy(dst[:elemSize], src[:elemSize])
		return
	}
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	dstStrides := strides(dstShape, elemSize)
	srcStrides := strides(srcShape, elemSize)
	run := count[ndim-1] * elemSize
	index := make([]int, ndim-1)
	for {
		d := dstOffset[ndim-1] * dstStrides[ndim-1]
		s := srcOffset[ndim-1] * srcStrides[ndim-1]
		for i, idx := range index {
			d += (dstOffset[i] + idx) * dstStrides[i]
			s += (srcOffset[i] + idx) * srcStrides[i]
		}
		copy(dst[d:d+run], src[s:s+run])
		if !next(index, count[:ndim-1]) {
			return
		}
	}
}

// next advances a C-order multi-index; it returns false once exhausted.
func next(index, limit []int) bool {
	for i := len(index) - 1; i >= 0; i-- {
		index[i]++
		if index[i] < limit[i] {
			return true
		}
		index[i] = 0
	}
	return false
}

func strides(shape []int, elemSize int) []int {
	ret := make([]int, len(shape))
	acc := elemSize
	for i := len(shape) - 1; i >= 0; i-- {
		ret[i] = acc
		acc *= shape[i]
	}
	return ret
}

// Region returns a copy of the box [start, start+count).
func (a *Array) Region(start, count []int) (*Array, error) {
	if len(start) != a.NDim() || len(count) != a.NDim() {
		return nil, fmt.Errorf("%w: region rank %d/%d for shape %v", ErrSelection, len(start), len(count), a.shape)
	}
	for i := range start {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > a.shape[i] {
			return nil, fmt.Errorf("%w: region %v+%v outside %v", ErrSelection, start, count, a.shape)
		}
	}
	ret := Zeros(a.dtype, count...)
	CopyRegion(ret.data, ret.shape, make([]int, len(count)), a.data, a.shape, start, count, a.dtype.Size())
	return ret, nil
}

// SetRegion writes src into a at offset.
func (a *Array) SetRegion(offset []int, src *Array) error {
	if src.dtype != a.dtype {
		return fmt.Errorf("%w: %v into %v", ErrDType, src.dtype, a.dtype)
	}
	if len(offset) != a.NDim() || src.NDim() != a.NDim() {
		return fmt.Errorf("%w: rank %d into %d", ErrShape, src.NDim(), a.NDim())
	}
	for i := range offset {
		if offset[i] < 0 || offset[i]+src.shape[i] > a.shape[i] {
			return fmt.Errorf("%w: %v at %v outside %v", ErrShape, src.shape, offset, a.shape)
		}
	}
	CopyRegion(a.data, a.shape, offset, src.data, src.shape, make([]int, len(offset)), src.shape, a.dtype.Size())
	return nil
}

// Concat joins a and b along axis. All other dimensions must agree.
func Concat(a, b *Array, axis int) (*Array, error) {
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("%w: cannot concatenate %v and %v", ErrDType, a.dtype, b.dtype)
	}
	if a.NDim() != b.NDim() {
		return nil, fmt.Errorf("%w: cannot concatenate %v and %v", ErrShape, a.shape, b.shape)
	}
	axis, err := NormalizeAxis(axis, a.NDim())
	if err != nil {
		return nil, err
	}
	for i := range a.shape {
		if i != axis && a.shape[i] != b.shape[i] {
			return nil, fmt.Errorf("%w: cannot concatenate %v and %v along %d", ErrShape, a.shape, b.shape, axis)
		}
	}
	shape := slices.Clone(a.shape)
	shape[axis] += b.shape[axis]
	ret := Zeros(a.dtype, shape...)
	offset := make([]int, len(shape))
	CopyRegion(ret.data, shape, offset, a.data, a.shape, make([]int, len(shape)), a.shape, a.dtype.Size())
	offset[axis] = a.shape[axis]
	CopyRegion(ret.data, shape, offset, b.data, b.shape, make([]int, len(shape)), b.shape, a.dtype.Size())
	return ret, nil
}

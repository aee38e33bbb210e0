package ndarray

import (
	"fmt"
	"math"
)

// End marks an open upper bound in a Range.
const End = math.MaxInt

// Range selects Start <= i < Stop with Step along one dimension. Negative
// Start and Stop count from the end of the dimension. A Range built with
// Index selects one position and removes the dimension from the result.
type Range struct {
	Start  int
	Stop   int
	Step   int
	single bool
}

// All selects a whole dimension.
func All() Range { return Range{Start: 0, Stop: End, Step: 1} }

// Span selects [start, stop).
func Span(start, stop int) Range { return Range{Start: start, Stop: stop, Step: 1} }

// Index selects a single position and drops the dimension.
func Index(i int) Range { return Range{Start: i, Stop: i + 1, Step: 1, single: true} }

// Selection is a per-dimension list of ranges. Missing trailing dimensions are selected in full.
type Selection []Range

// Box is a Selection resolved against a concrete shape.
type Box struct {
	Start []int
	Count []int
	Step  []int
	Drop  []bool
}

// Bounds returns the number of elements to read per dimension to cover the box before striding.
func (b *Box) Bounds() []int {
	ret := make([]int, len(b.Count))
	for i, c := range b.Count {
		if c > 0 {
			ret[i] = (c-1)*b.Step[i] + 1
		}
	}
	return ret
}

// Resolve validates the selection against shape.
func (s Selection) Resolve(shape []int) (*Box, error) {
	if len(s) > len(shape) {
		return nil, fmt.Errorf("%w: %d ranges for shape %v", ErrSelection, len(s), shape)
	}
	ndim := len(shape)
	box := &Box{Start: make([]int, ndim), Count: make([]int, ndim), Step: make([]int, ndim), Drop: make([]bool, ndim)}
	for i, extent := range shape {
		r := All()
		if i < len(s) {
			r = s[i]
		}
		if r.Step == 0 {
			r.Step = 1
		}
		if r.Step < 0 {
			return nil, fmt.Errorf("%w: negative step %d", ErrSelection, r.Step)
		}
		start, stop := clampIndex(r.Start, extent), clampIndex(r.Stop, extent)
		if r.single {
			if r.Start < -extent || r.Start >= extent {
				return nil, fmt.Errorf("%w: index %d out of range for extent %d", ErrSelection, r.Start, extent)
			}
			start, stop = clampIndex(r.Start, extent), clampIndex(r.Start, extent)+1
		}
		count := 0
		if stop > start {
			count = (stop-start+r.Step-1)/r.Step
		}
		box.Start[i], box.Count[i], box.Step[i], box.Drop[i] = start, count, r.Step, r.single
	}
	return box, nil
}

func clampIndex(i, extent int) int {
	if i == End {
		return extent
	}
	if i < 0 {
		i += extent
	}
	if i < 0 {
		return 0
	}
	if i > extent {
		return extent
	}
	return i
}

// Finish applies steps and dropped dimensions to a region read with Bounds().
func (b *Box) Finish(region *Array) (*Array, error) {
	ret := region
	strided := false
	for _, step := range b.Step {
		if step > 1 {
			strided = true
		}
	}
	if strided {
		ret = Zeros(region.dtype, b.Count...)
		size := region.dtype.Size()
		srcStrides := strides(region.shape, size)
		index := make([]int, len(b.Count))
		if ret.Len() > 0 {
			for o := 0; ; o++ {
				s := 0
				for i, idx := range index {
					s += idx * b.Step[i] * srcStrides[i]
				}
				copy(ret.data[o*size:(o+1)*size], region.data[s:s+size])
				if !next(index, b.Count) {
					break
				}
			}
		}
	}
	var shape []int
	for i, c := range b.Count {
		if !b.Drop[i] {
			shape = append(shape, c)
		}
	}
	if len(shape) == len(b.Count) {
		return ret, nil
	}
	return ret.Reshape(shape...)
}

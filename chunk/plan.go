// Package chunk decides how datasets are split into fixed-size blocks and
// maps array regions onto the block grid.
package chunk

import (
	"errors"
	"fmt"
)

// ErrDimension is returned for a grow dimension outside the shape rank.
var ErrDimension = errors.New("chunk: grow dimension out of range")

// BlockBytes is the I/O block size chunks aim for. Recommended chunk sizes
// range from 10k to 300k elements; appends benefit from the top of the range.
const BlockBytes = 300000

// elementBytes is the element size assumed when planning, regardless of dtype.
const elementBytes = 8

// Plan computes the chunk shape for a dataset written in one piece. The
// largest dimension is cut so that a chunk holds about BlockBytes/8 elements;
// the result stays within [1, extent] for that dimension. A scalar shape
// yields an empty chunk shape: a single chunk holding one element.
func Plan(shape []int) []int {
	if len(shape) == 0 {
		return []int{}
	}
	ret := append([]int(nil), shape...)
	largest := 0
	for i, dim := range shape {
		if dim > shape[largest] {
			largest = i
		}
	}
	perBlock := float64(BlockBytes) / elementBytes
	for i, dim := range shape {
		if i != largest && dim != 0 {
			perBlock /= float64(dim)
		}
	}
	if perBlock < 1 {
		perBlock = 1
	}
	extent := int(perBlock)
	if limit := shape[largest]; extent > limit {
		extent = max(limit, 1)
	}
	ret[largest] = extent
	return ret
}

// PlanGrowable computes the chunk shape for a dataset that grows along
// growDim. The chunk extent along growDim ignores the current extent so it
// stays efficient as appends extend the dataset. Negative growDim counts
// from the last dimension; anything outside the rank is ErrDimension.
func PlanGrowable(shape []int, growDim int) ([]int, error) {
	if len(shape) == 0 {
		return []int{}, nil
	}
	if growDim < -len(shape) || growDim >= len(shape) {
		return nil, fmt.Errorf("%w: %d for rank %d", ErrDimension, growDim, len(shape))
	}
	if growDim < 0 {
		growDim += len(shape)
	}
	ret := append([]int(nil), shape...)
	perBlock := float64(BlockBytes) / elementBytes
	for i, dim := range shape {
		if i != growDim && dim != 0 {
			perBlock /= float64(dim)
		}
	}
	if perBlock < 1 {
		perBlock = 1
	}
	ret[growDim] = int(perBlock)
	return ret, nil
}

// Volume returns the number of elements in a chunk; an empty chunk shape holds one.
func Volume(chunk []int) int {
	ret := 1
	for _, dim := range chunk {
		ret *= dim
	}
	return ret
}

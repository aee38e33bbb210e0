package storage

import (
	"context"
	"fmt"

	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/ndarray"
)

// AppendBuffer accumulates appends to one dataset and writes them in a
// single resize and write. A buffer belongs to the Manager that created it.
type AppendBuffer struct {
	path      string
	axis      int
	threshold int
	pending   *ndarray.Array
}

func newAppendBuffer(path string, axis, threshold int) *AppendBuffer {
	return &AppendBuffer{path: path, axis: axis, threshold: threshold}
}

// Buffer concatenates data onto the pending array along the growth axis;
// data is copied, so the caller may reuse it. It returns false once the pending size exceeds the threshold and the buffer
// should be flushed.
func (b *AppendBuffer) Buffer(data *ndarray.Array) (bool, error) {
	if b.pending == nil {
		b.pending = data.Clone()
	} else {
		joined, err := ndarray.Concat(b.pending, data.AsType(b.pending.DType()), b.axis)
		if err != nil {
			return false, err
		}
		b.pending = joined
	}
	return b.pending.NBytes() <= b.threshold, nil
}

// Pending returns the buffered payload size in bytes.
func (b *AppendBuffer) Pending() int {
	if b.pending == nil {
		return 0
	}
	return b.pending.NBytes()
}

// Flush grows the dataset along the growth axis by the pending extent and
// writes the pending array into the new region. It is a no-op when nothing
// is pending.
func (b *AppendBuffer) Flush(ctx context.Context, f *container.File) (int, error) {
	if b.pending == nil {
		return 0, nil
	}
	h, err := f.Dataset(ctx, b.path)
	if err != nil {
		return 0, err
	}
	if len(h.Shape) != b.pending.NDim() {
		return 0, fmt.Errorf("%w: cannot append %v to %v", ndarray.ErrShape, b.pending.Shape(), h.Shape)
	}
	shape := append([]int(nil), h.Shape...)
	start := make([]int, len(shape))
	start[b.axis] = shape[b.axis]
	pendingShape := b.pending.Shape()
	for i := range shape {
		if i != b.axis && shape[i] != pendingShape[i] {
			return 0, fmt.Errorf("%w: cannot append %v to %v along %d", ndarray.ErrShape, pendingShape, h.Shape, b.axis)
		}
	}
	shape[b.axis] += pendingShape[b.axis]
	if err := f.Resize(ctx, b.path, shape); err != nil {
		return 0, err
	}
	if err := f.WriteSlab(ctx, b.path, start, b.pending); err != nil {
		return 0, err
	}
	flushed := b.pending.NBytes()
	b.pending = nil
	return flushed, nil
}

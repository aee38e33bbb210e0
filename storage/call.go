package storage

import (
	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/ndarray"
)

// CallOption adjusts a single Manager call.
type CallOption func(c *call)

type call struct {
	where        string
	growDim      int
	keepOpen     bool
	selection    ndarray.Selection
	ignoreErrors bool
	raw          bool
}

func newCall(opts []CallOption) *call {
	ret := &call{where: container.RootPath, growDim: -1}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// path joins where and name the way callers address nodes: plain concatenation.
func (c *call) path(name string) string {
	return container.CleanPath(c.where + name)
}

// At sets the prefix the dataset name is appended to; callers include the separating "/".
func At(where string) CallOption {
	return func(c *call) {
		if where != "" {
			c.where = where
		}
	}
}

// WithGrowDimension sets the append axis; negative values count from the last axis.
func WithGrowDimension(axis int) CallOption {
	return func(c *call) { c.growDim = axis }
}

// WithKeepOpen leaves the file and its append buffers open after Append;
// a later Close flushes them.
func WithKeepOpen() CallOption {
	return func(c *call) { c.keepOpen = true }
}

// WithSelection reads a sub array.
func WithSelection(ranges ...ndarray.Range) CallOption {
	return func(c *call) { c.selection = ranges }
}

// IgnoreErrors turns a missing dataset into an empty result.
func IgnoreErrors() CallOption {
	return func(c *call) { c.ignoreErrors = true }
}

// Raw disables metadata key namespacing.
func Raw() CallOption {
	return func(c *call) { c.raw = true }
}

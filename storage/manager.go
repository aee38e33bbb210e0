package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/viant/arrayfile/chunk"
	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/lock"
	"github.com/viant/arrayfile/meta"
	"github.com/viant/arrayfile/ndarray"
)

// Stats counts append activity of a Manager.
type Stats struct {
	Appends      uint64 `json:"appends"`
	Flushes      uint64 `json:"flushes"`
	BytesFlushed uint64 `json:"bytesFlushed"`
}

// Manager stores arrays and metadata in one container file.
type Manager struct {
	path        string
	bufferSize  int
	registry    *lock.Registry
	logger      *slog.Logger
	dataVersion meta.Value
	namespace   string
	codec       container.Codec
	fileOptions container.Options

	file    *container.File
	buffers map[string]*AppendBuffer

	appends      atomic.Uint64
	flushes      atomic.Uint64
	bytesFlushed atomic.Uint64
}

// New creates a manager for folder/name. The file is not touched until the first operation.
func New(folder, name string, options ...Option) (*Manager, error) {
	if folder == "" {
		return nil, &Error{Kind: KindStructure, Op: "new", Err: errors.New("storage folder is required")}
	}
	if name == "" {
		return nil, &Error{Kind: KindStructure, Op: "new", Path: folder, Err: errors.New("file name is required")}
	}
	ret := &Manager{
		path:        filepath.Join(folder, name),
		bufferSize:  DefaultBufferSize,
		registry:    lock.Process(),
		logger:      slog.Default(),
		dataVersion: meta.Int(DefaultDataVersion),
		namespace:   DefaultNamespace,
		fileOptions: container.DefaultOptions(),
		buffers:     map[string]*AppendBuffer{},
	}
	ret.fileOptions.AccessMode = DefaultAccessMode
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Path returns the physical file path.
func (m *Manager) Path() string { return m.path }

// Stats returns append counters.
func (m *Manager) Stats() Stats {
	return Stats{Appends: m.appends.Load(), Flushes: m.flushes.Load(), BytesFlushed: m.bytesFlushed.Load()}
}

// IsValidContainer reports whether the file exists and carries the container
// magic. I/O errors yield false.
func (m *Manager) IsValidContainer() bool {
	ok, err := container.IsContainer(m.path)
	if err != nil {
		return false
	}
	return ok
}

// acquire takes the path lock. A handle kept open from an earlier call
// forgets its cached headers since other managers may have written meanwhile.
func (m *Manager) acquire(op string) error {
	ok, err := m.registry.TryAcquire(m.path)
	if err != nil {
		return newError(KindStructure, op, m.path, err)
	}
	if !ok {
		m.logger.Debug("waiting for file lock", "path", m.path, "op", op)
		if err := m.registry.Acquire(m.path); err != nil {
			return newError(KindStructure, op, m.path, err)
		}
	}
	m.file.Refresh()
	return nil
}

func (m *Manager) release() {
	m.registry.Release(m.path)
}

// open returns the current handle when it can serve mode, otherwise it
// opens the file. New files get the data version stamped on the root.
func (m *Manager) open(ctx context.Context, op string, mode container.Mode) (*container.File, error) {
	if m.file.Valid() {
		if mode == container.ModeRead || m.file.Mode() != container.ModeRead {
			return m.file, nil
		}
		m.closeHandle()
	}
	f, err := container.Open(ctx, m.path, mode, m.fileOptions)
	if err != nil {
		return nil, newError(KindStructure, op, m.path, err)
	}
	m.logger.Debug("opened file", "path", m.path, "mode", f.Mode().String())
	if f.Created() {
		key := meta.Namespace(m.namespace, VersionKey, true)
		if err := f.SetAttr(ctx, container.RootPath, key, meta.Encode(m.dataVersion)); err != nil {
			_ = f.Close()
			return nil, newError(KindStructure, op, m.path, err)
		}
	}
	m.file = f
	return f, nil
}

// closeFile flushes every append buffer and closes the handle. Flush errors
// are returned; close errors are logged.
func (m *Manager) closeFile(ctx context.Context) error {
	err := m.flushAll(ctx)
	m.buffers = map[string]*AppendBuffer{}
	m.closeHandle()
	return err
}

// closeHandle closes the SQLite handle without touching append buffers.
func (m *Manager) closeHandle() {
	if m.file.Valid() {
		if err := m.file.Close(); err != nil {
			m.logger.Error("failed to close file", "path", m.path, "error", err)
		} else {
			m.logger.Debug("closed file", "path", m.path)
		}
	}
	m.file = nil
}

func (m *Manager) flushAll(ctx context.Context) error {
	if len(m.buffers) == 0 {
		return nil
	}
	if _, err := m.open(ctx, "flush", container.ModeAppend); err != nil {
		return err
	}
	keys := make([]string, 0, len(m.buffers))
	for key := range m.buffers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var errs []error
	for _, key := range keys {
		if err := m.flush(ctx, m.buffers[key]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) flush(ctx context.Context, buf *AppendBuffer) error {
	n, err := buf.Flush(ctx, m.file)
	if err != nil {
		delete(m.buffers, buf.path)
		kind := KindStructure
		if errors.Is(err, container.ErrShapeLimit) {
			kind = KindIncompatible
		}
		return newError(kind, "flush", buf.path, err)
	}
	if n > 0 {
		m.flushes.Add(1)
		m.bytesFlushed.Add(uint64(n))
		m.logger.Debug("flushed append buffer", "path", m.path, "dataset", buf.path, "bytes", n)
	}
	return nil
}

// finish closes the file at the end of op, keeping the first error.
func (m *Manager) finish(ctx context.Context, op, p string, err *error) {
	if cerr := m.closeFile(ctx); cerr != nil && *err == nil {
		*err = newError(KindStructure, op, p, cerr)
	}
}

// Store writes data as the dataset name. An existing dataset of the same
// shape is overwritten in place; a growable dataset whose max shape admits
// the new shape is resized first. Any other shape change is incompatible.
func (m *Manager) Store(ctx context.Context, name string, data any, opts ...CallOption) (err error) {
	const op = "store"
	p := newCall(opts).path(name)
	arr, err := ndarray.FromValue(data)
	if err != nil {
		return newError(KindStructure, op, p, err)
	}
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	defer m.finish(ctx, op, p, &err)
	m.logger.Debug("storing data", "path", m.path, "dataset", p, "shape", arr.Shape(), "dtype", arr.DType().String())

	shape := arr.Shape()
	h, err := f.Dataset(ctx, p)
	switch {
	case errors.Is(err, container.ErrNotFound):
		header := container.Header{DType: arr.DType(), Shape: shape, MaxShape: shape, Chunk: fitChunk(chunk.Plan(shape)), Codec: m.codec}
		if _, err = f.CreateDataset(ctx, p, header); err != nil {
			return newError(KindStructure, op, p, err)
		}
	case errors.Is(err, container.ErrNotDataset):
		return newError(KindIncompatible, op, p, err)
	case err != nil:
		return newError(KindStructure, op, p, err)
	case !slices.Equal(h.Shape, shape):
		if !resizable(h) || !h.Admits(shape) {
			return newError(KindIncompatible, op, p, fmt.Errorf("cannot overwrite shape %v with %v", h.Shape, shape))
		}
		if err = f.Resize(ctx, p, shape); err != nil {
			return newError(KindStructure, op, p, err)
		}
	}
	if err = f.WriteSlab(ctx, p, make([]int, len(shape)), arr); err != nil {
		return newError(KindStructure, op, p, err)
	}
	return nil
}

// resizable reports whether a dataset was created with room to change shape.
func resizable(h *container.Header) bool {
	for axis := range h.Shape {
		if h.Growable(axis) {
			return true
		}
	}
	return false
}

// fitChunk raises zero chunk extents (from zero sized dimensions) to one.
func fitChunk(shape []int) []int {
	for i, dim := range shape {
		if dim < 1 {
			shape[i] = 1
		}
	}
	return shape
}

// Append adds data to the dataset name along the growth dimension. A missing
// dataset is created empty along that axis and unbounded. Appends are
// buffered and flushed once the buffer exceeds its size, or when the file is
// closed. Unless WithKeepOpen is given the file is closed, and every buffer
// flushed, before returning.
func (m *Manager) Append(ctx context.Context, name string, data any, opts ...CallOption) (err error) {
	const op = "append"
	c := newCall(opts)
	p := c.path(name)
	arr, err := ndarray.FromValue(data)
	if err != nil {
		return newError(KindStructure, op, p, err)
	}
	if arr.NDim() == 0 {
		return newError(KindStructure, op, p, fmt.Errorf("%w: cannot append a scalar", ndarray.ErrShape))
	}
	axis, err := ndarray.NormalizeAxis(c.growDim, arr.NDim())
	if err != nil {
		return newError(KindStructure, op, p, err)
	}
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	if !c.keepOpen {
		defer m.finish(ctx, op, p, &err)
	}

	buf, ok := m.buffers[p]
	if !ok {
		_, err = f.Dataset(ctx, p)
		switch {
		case errors.Is(err, container.ErrNotFound):
			shape := arr.Shape()
			maxShape := slices.Clone(shape)
			var chunkShape []int
			if chunkShape, err = chunk.PlanGrowable(shape, axis); err != nil {
				return newError(KindStructure, op, p, err)
			}
			chunkShape = fitChunk(chunkShape)
			shape[axis] = 0
			maxShape[axis] = container.Unlimited
			header := container.Header{DType: arr.DType(), Shape: shape, MaxShape: maxShape, Chunk: chunkShape, Codec: m.codec}
			if _, err = f.CreateDataset(ctx, p, header); err != nil {
				return newError(KindStructure, op, p, err)
			}
			m.logger.Debug("created growable dataset", "path", m.path, "dataset", p, "axis", axis)
		case errors.Is(err, container.ErrNotDataset):
			return newError(KindIncompatible, op, p, err)
		case err != nil:
			return newError(KindStructure, op, p, err)
		}
		buf = newAppendBuffer(p, axis, m.bufferSize)
		m.buffers[p] = buf
	}
	keep, err := buf.Buffer(arr)
	if err != nil {
		return newError(KindStructure, op, p, err)
	}
	m.appends.Add(1)
	m.logger.Debug("buffered append", "path", m.path, "dataset", p, "pending", buf.Pending())
	if !keep {
		return m.flush(ctx, buf)
	}
	return nil
}

// CreateGroup creates the group name together with missing parent groups.
// An occupied path or a dataset on the way is incompatible.
func (m *Manager) CreateGroup(ctx context.Context, name string, opts ...CallOption) (err error) {
	const op = "create group"
	p := newCall(opts).path(name)
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	defer m.finish(ctx, op, p, &err)
	if err = f.CreateGroup(ctx, p); err != nil {
		if errors.Is(err, container.ErrExists) || errors.Is(err, container.ErrNotGroup) {
			return newError(KindIncompatible, op, p, err)
		}
		return newError(KindStructure, op, p, err)
	}
	m.logger.Debug("created group", "path", m.path, "group", p)
	return nil
}

// Remove deletes the node name with everything below it.
func (m *Manager) Remove(ctx context.Context, name string, opts ...CallOption) (err error) {
	const op = "remove"
	p := newCall(opts).path(name)
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	defer m.finish(ctx, op, p, &err)
	for key := range m.buffers {
		if key == p || strings.HasPrefix(key, p+"/") {
			delete(m.buffers, key)
		}
	}
	if err = f.Delete(ctx, p); err != nil {
		if errors.Is(err, container.ErrNotFound) {
			m.logger.Error("trying to remove a missing node", "path", m.path, "dataset", p)
		}
		return newError(KindStructure, op, p, err)
	}
	return nil
}

// Read returns the dataset name, or the part chosen by WithSelection.
// A missing dataset is an ErrMissingDataSet error, or an empty array with IgnoreErrors.
func (m *Manager) Read(ctx context.Context, name string, opts ...CallOption) (ret *ndarray.Array, err error) {
	const op = "read"
	c := newCall(opts)
	p := c.path(name)
	if err = m.acquire(op); err != nil {
		return nil, err
	}
	defer m.release()
	defer m.finish(ctx, op, p, &err)
	if err = m.flushAll(ctx); err != nil {
		return nil, err
	}
	f, err := m.open(ctx, op, container.ModeRead)
	if err != nil {
		return nil, err
	}
	h, err := f.Dataset(ctx, p)
	if err != nil {
		if missing(err) {
			if c.ignoreErrors {
				return ndarray.Empty(), nil
			}
			m.logger.Warn("trying to read data from a missing data set", "path", m.path, "dataset", p)
			return nil, newError(KindMissingDataSet, op, p, err)
		}
		return nil, newError(KindStructure, op, p, err)
	}
	if c.selection == nil {
		if ret, err = f.ReadSlab(ctx, p, make([]int, len(h.Shape)), h.Shape); err != nil {
			return nil, newError(KindStructure, op, p, err)
		}
		return ret, nil
	}
	box, err := c.selection.Resolve(h.Shape)
	if err != nil {
		return nil, newError(KindStructure, op, p, err)
	}
	region, err := f.ReadSlab(ctx, p, box.Start, box.Bounds())
	if err != nil {
		return nil, newError(KindStructure, op, p, err)
	}
	if ret, err = box.Finish(region); err != nil {
		return nil, newError(KindStructure, op, p, err)
	}
	return ret, nil
}

// ReadShape returns the shape of the dataset name; with IgnoreErrors a
// missing dataset yields a nil shape.
func (m *Manager) ReadShape(ctx context.Context, name string, opts ...CallOption) (ret []int, err error) {
	const op = "read shape"
	c := newCall(opts)
	p := c.path(name)
	if err = m.acquire(op); err != nil {
		return nil, err
	}
	defer m.release()
	defer m.finish(ctx, op, p, &err)
	if err = m.flushAll(ctx); err != nil {
		return nil, err
	}
	f, err := m.open(ctx, op, container.ModeRead)
	if err != nil {
		return nil, err
	}
	h, err := f.Dataset(ctx, p)
	if err != nil {
		if missing(err) {
			if c.ignoreErrors {
				return nil, nil
			}
			m.logger.Warn("trying to read shape of a missing data set", "path", m.path, "dataset", p)
			return nil, newError(KindMissingDataSet, op, p, err)
		}
		return nil, newError(KindStructure, op, p, err)
	}
	return h.Shape, nil
}

func missing(err error) bool {
	return errors.Is(err, container.ErrNotFound) || errors.Is(err, container.ErrNotDataset)
}

// SetMetadata stores entries as attributes of the node name; an empty name
// addresses the root. A missing node is created as a one element
// placeholder dataset. Keys are namespaced unless Raw is given.
func (m *Manager) SetMetadata(ctx context.Context, entries map[string]any, name string, opts ...CallOption) (err error) {
	const op = "set metadata"
	c := newCall(opts)
	p := c.path(name)
	values := make(map[string]meta.Value, len(entries))
	for key, v := range entries {
		value, err := meta.Of(v)
		if err != nil {
			return newError(KindStructure, op, p, fmt.Errorf("%s: %w", key, err))
		}
		values[meta.Namespace(m.namespace, key, !c.raw)] = meta.Encode(value)
	}
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	defer m.finish(ctx, op, p, &err)
	exists, err := f.Exists(ctx, p)
	if err != nil {
		return newError(KindStructure, op, p, err)
	}
	if !exists {
		m.logger.Debug("setting metadata on a missing data set", "path", m.path, "dataset", p)
		placeholder := container.Header{DType: ndarray.Float64, Shape: []int{1}, MaxShape: []int{1}, Chunk: []int{1}}
		if _, err = f.CreateDataset(ctx, p, placeholder); err != nil {
			return newError(KindStructure, op, p, err)
		}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err = f.SetAttr(ctx, p, key, values[key]); err != nil {
			return newError(KindStructure, op, p, err)
		}
	}
	return nil
}

// RemoveMetadata deletes the attribute key from the node name.
func (m *Manager) RemoveMetadata(ctx context.Context, key, name string, opts ...CallOption) (err error) {
	const op = "remove metadata"
	c := newCall(opts)
	p := c.path(name)
	if err = m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeAppend)
	if err != nil {
		return err
	}
	defer m.finish(ctx, op, p, &err)
	if err = f.DeleteAttr(ctx, p, meta.Namespace(m.namespace, key, !c.raw)); err != nil {
		switch {
		case errors.Is(err, container.ErrNotFound):
			m.logger.Error("trying to delete metadata on a missing data set", "path", m.path, "dataset", p)
		case errors.Is(err, container.ErrAttrNotFound):
			m.logger.Error("trying to delete missing metadata", "path", m.path, "dataset", p, "key", key)
		}
		return newError(KindStructure, op, p, err)
	}
	return nil
}

// GetMetadata returns the decoded attributes of the node name with the
// namespace stripped from keys.
func (m *Manager) GetMetadata(ctx context.Context, name string, opts ...CallOption) (ret map[string]meta.Value, err error) {
	const op = "get metadata"
	c := newCall(opts)
	p := c.path(name)
	if err = m.acquire(op); err != nil {
		return nil, err
	}
	defer m.release()
	f, err := m.open(ctx, op, container.ModeRead)
	if err != nil {
		return nil, err
	}
	defer m.finish(ctx, op, p, &err)
	attrs, err := f.Attrs(ctx, p)
	if err != nil {
		if errors.Is(err, container.ErrNotFound) {
			if c.ignoreErrors {
				return map[string]meta.Value{}, nil
			}
			m.logger.Warn("trying to read metadata of a missing data set", "path", m.path, "dataset", p)
			return nil, newError(KindMissingDataSet, op, p, err)
		}
		return nil, newError(KindStructure, op, p, err)
	}
	ret = make(map[string]meta.Value, len(attrs))
	for _, attr := range attrs {
		value, err := meta.Decode(attr.Value)
		if err != nil {
			return nil, newError(KindStructure, op, p, fmt.Errorf("%s: %w", attr.Name, err))
		}
		ret[meta.StripNamespace(m.namespace, attr.Name)] = value
	}
	return ret, nil
}

// FileVersion returns the data version stamped on the root when the file was created.
func (m *Manager) FileVersion(ctx context.Context) (meta.Value, error) {
	return m.rootAttr(ctx, "file version", VersionKey)
}

// GID returns the global identifier attribute of the root.
func (m *Manager) GID(ctx context.Context) (meta.Value, error) {
	return m.rootAttr(ctx, "gid", GIDKey)
}

func (m *Manager) rootAttr(ctx context.Context, op, key string) (meta.Value, error) {
	if _, err := os.Stat(m.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return meta.Value{}, newError(KindMissingFile, op, m.path, err)
		}
		return meta.Value{}, newError(KindStructure, op, m.path, err)
	}
	if !m.IsValidContainer() {
		return meta.Value{}, newError(KindIncompatible, op, m.path, container.ErrNotContainer)
	}
	metadata, err := m.GetMetadata(ctx, "")
	if err != nil {
		return meta.Value{}, err
	}
	ret, ok := metadata[key]
	if !ok {
		return meta.Value{}, newError(KindIncompatible, op, m.path, fmt.Errorf("attribute %s not found", key))
	}
	return ret, nil
}

// Nodes lists the node tree under where.
func (m *Manager) Nodes(ctx context.Context, where string) (ret []container.Node, err error) {
	const op = "nodes"
	p := container.CleanPath(where)
	if err = m.acquire(op); err != nil {
		return nil, err
	}
	defer m.release()
	defer m.finish(ctx, op, p, &err)
	if err = m.flushAll(ctx); err != nil {
		return nil, err
	}
	f, err := m.open(ctx, op, container.ModeRead)
	if err != nil {
		return nil, err
	}
	if ret, err = f.Nodes(ctx, p); err != nil {
		if errors.Is(err, container.ErrNotFound) {
			return nil, newError(KindMissingDataSet, op, p, err)
		}
		return nil, newError(KindStructure, op, p, err)
	}
	return ret, nil
}

// Close flushes every append buffer and closes the file.
func (m *Manager) Close(ctx context.Context) error {
	const op = "close"
	if err := m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	if err := m.closeFile(ctx); err != nil {
		return newError(KindStructure, op, m.path, err)
	}
	return nil
}

package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/arrayfile/chunk"
	"github.com/viant/arrayfile/ndarray"
)

// CreateDataset creates a dataset node at p, adding missing parent groups.
// The dataset starts zero filled.
func (f *File) CreateDataset(ctx context.Context, p string, h Header) (*Header, error) {
	if err := f.writable(); err != nil {
		return nil, err
	}
	p = CleanPath(p)
	if p == RootPath {
		return nil, fmt.Errorf("%w: %s", ErrExists, p)
	}
	header := h.clone()
	if err := header.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	data, err := marshalHeader(header)
	if err != nil {
		return nil, err
	}
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	if err := ensureParents(ctx, tx, p); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO nodes(path, kind, header) VALUES(?, ?, ?)`, p, KindDataset, data)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExists, p)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	f.headers[p] = header
	return header.clone(), nil
}

// Dataset returns the header of the dataset at p.
func (f *File) Dataset(ctx context.Context, p string) (*Header, error) {
	h, err := f.dataset(ctx, CleanPath(p))
	if err != nil {
		return nil, err
	}
	return h.clone(), nil
}

func (f *File) dataset(ctx context.Context, p string) (*Header, error) {
	if h, ok := f.headers[p]; ok {
		return h, nil
	}
	node, err := f.Node(ctx, p)
	if err != nil {
		return nil, err
	}
	if node.Kind != KindDataset {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, p)
	}
	f.headers[p] = node.Header
	return node.Header, nil
}

func (f *File) putHeader(ctx context.Context, tx *sql.Tx, p string, h *Header) error {
	data, err := marshalHeader(h)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE nodes SET header = ? WHERE path = ?`, data, p)
	return err
}

// Resize changes the dataset extent within its max shape. Growing exposes
// zero filled elements; shrinking discards elements beyond the new extent.
func (f *File) Resize(ctx context.Context, p string, shape []int) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	h, err := f.dataset(ctx, p)
	if err != nil {
		return err
	}
	if len(shape) != len(h.Shape) {
		return fmt.Errorf("%s: %w: rank %d != %d", p, ndarray.ErrShape, len(shape), len(h.Shape))
	}
	if !h.Admits(shape) {
		return fmt.Errorf("%s: %w: %v > %v", p, ErrShapeLimit, shape, h.MaxShape)
	}
	shrink := false
	kept := make([]int, len(shape))
	for i := range shape {
		if shape[i] < 0 {
			return fmt.Errorf("%s: %w: negative extent in %v", p, ndarray.ErrShape, shape)
		}
		shrink = shrink || shape[i] < h.Shape[i]
		kept[i] = min(shape[i], h.Shape[i])
	}
	var retained *ndarray.Array
	if shrink {
		if retained, err = f.ReadSlab(ctx, p, make([]int, len(shape)), kept); err != nil {
			return err
		}
	}
	next := h.clone()
	next.Shape = append([]int(nil), shape...)
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if shrink {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, p); err != nil {
			return err
		}
		if err := f.writeChunks(ctx, tx, p, next, make([]int, len(shape)), retained); err != nil {
			return err
		}
	}
	if err := f.putHeader(ctx, tx, p, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	f.headers[p] = next
	return nil
}

// WriteSlab writes data into the dataset at p starting at start. Elements are
// converted to the dataset dtype.
func (f *File) WriteSlab(ctx context.Context, p string, start []int, data *ndarray.Array) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	h, err := f.dataset(ctx, p)
	if err != nil {
		return err
	}
	if err := checkSlab(h, start, data.Shape()); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := f.writeChunks(ctx, tx, p, h, start, data.AsType(h.DType)); err != nil {
		return err
	}
	return tx.Commit()
}

// ReadSlab reads count elements per dimension starting at start.
func (f *File) ReadSlab(ctx context.Context, p string, start, count []int) (*ndarray.Array, error) {
	if f.db == nil {
		return nil, ErrClosed
	}
	p = CleanPath(p)
	h, err := f.dataset(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := checkSlab(h, start, count); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	size := h.DType.Size()
	out := make([]byte, ndarray.Volume(count)*size)
	for _, proj := range chunk.Projections(h.Chunk, start, count) {
		raw, err := f.loadChunk(ctx, f.db, p, h, proj.Key())
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		ndarray.CopyRegion(out, count, proj.OutOffset, raw, h.Chunk, proj.ChunkOffset, proj.Count, size)
	}
	return ndarray.FromBytes(h.DType, count, out)
}

// Read reads the whole dataset at p.
func (f *File) Read(ctx context.Context, p string) (*ndarray.Array, error) {
	h, err := f.Dataset(ctx, p)
	if err != nil {
		return nil, err
	}
	return f.ReadSlab(ctx, p, make([]int, len(h.Shape)), h.Shape)
}

func checkSlab(h *Header, start, count []int) error {
	if len(start) != len(h.Shape) || len(count) != len(h.Shape) {
		return fmt.Errorf("%w: slab rank %d for shape %v", ndarray.ErrShape, len(count), h.Shape)
	}
	for i := range start {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > h.Shape[i] {
			return fmt.Errorf("%w: %v+%v outside %v", ErrOutOfBounds, start, count, h.Shape)
		}
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (f *File) writeChunks(ctx context.Context, tx *sql.Tx, p string, h *Header, start []int, data *ndarray.Array) error {
	size := h.DType.Size()
	chunkBytes := chunk.Volume(h.Chunk) * size
	count := data.Shape()
	for _, proj := range chunk.Projections(h.Chunk, start, count) {
		key := proj.Key()
		var raw []byte
		if !covers(proj.Count, h.Chunk) {
			existing, err := f.loadChunk(ctx, tx, p, h, key)
			if err != nil {
				return err
			}
			raw = existing
		}
		if raw == nil {
			raw = make([]byte, chunkBytes)
		}
		ndarray.CopyRegion(raw, h.Chunk, proj.ChunkOffset, data.Bytes(), count, proj.OutOffset, proj.Count, size)
		if err := f.storeChunk(ctx, tx, p, h, key, raw); err != nil {
			return err
		}
	}
	return nil
}

func covers(count, chunkShape []int) bool {
	for i := range count {
		if count[i] != chunkShape[i] {
			return false
		}
	}
	return true
}

// loadChunk returns the uncompressed chunk bytes, or nil when the chunk was never written.
func (f *File) loadChunk(ctx context.Context, q querier, p string, h *Header, key string) ([]byte, error) {
	var blob []byte
	var sum int64
	err := q.QueryRowContext(ctx, `SELECT data, checksum FROM chunks WHERE path = ? AND coord = ?`, p, key).Scan(&blob, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.chunksRead.Add(1)
	size := chunk.Volume(h.Chunk) * h.DType.Size()
	raw, err := h.Codec.decode(blob, size)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", p, key, err)
	}
	actual, err := checksum(raw)
	if err != nil {
		return nil, err
	}
	if int64(actual) != sum || len(raw) != size {
		return nil, fmt.Errorf("%w: %s[%s]", ErrCorrupt, p, key)
	}
	return raw, nil
}

func (f *File) storeChunk(ctx context.Context, tx *sql.Tx, p string, h *Header, key string, raw []byte) error {
	sum, err := checksum(raw)
	if err != nil {
		return err
	}
	blob, err := h.Codec.encode(raw)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO chunks(path, coord, data, checksum) VALUES(?, ?, ?, ?)`, p, key, blob, int64(sum)); err != nil {
		return err
	}
	f.chunksWritten.Add(1)
	f.bytesWritten.Add(uint64(len(blob)))
	return nil
}

// Package container implements the array container file: a single SQLite
// database holding a tree of nodes, chunked dataset blobs and attributes.
package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/viant/arrayfile/db/sqliteutil"
	"github.com/viant/arrayfile/meta"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Mode selects how a file is opened.
type Mode int

const (
	// ModeRead opens an existing file read-only.
	ModeRead Mode = iota
	// ModeAppend opens read/write and creates the file when missing.
	ModeAppend
	// ModeCreate truncates or creates the file.
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeAppend:
		return "a"
	case ModeCreate:
		return "w"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// NodeKind distinguishes groups from datasets.
type NodeKind int

const (
	KindGroup NodeKind = iota
	KindDataset
)

func (k NodeKind) String() string {
	if k == KindDataset {
		return "dataset"
	}
	return "group"
}

// Node is an entry of the node tree.
type Node struct {
	Path   string
	Kind   NodeKind
	Header *Header
}

// Options configures how files are opened.
type Options struct {
	// BusyTimeoutMS is how long a handle waits on a file locked by another handle.
	BusyTimeoutMS int
	// JournalMode is the SQLite journal mode; the default rollback journal
	// keeps every committed page in the main file.
	JournalMode string
	// AccessMode is applied to files created by Open.
	AccessMode os.FileMode
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{BusyTimeoutMS: 5000, JournalMode: "DELETE", AccessMode: 0o640}
}

// Stats exposes basic I/O counters of a handle.
type Stats struct {
	ChunksRead    uint64 `json:"chunksRead"`
	ChunksWritten uint64 `json:"chunksWritten"`
	BytesWritten  uint64 `json:"bytesWritten"`
}

// File is an open container handle. It is not safe for concurrent use.
type File struct {
	path    string
	mode    Mode
	created bool
	db      *sql.DB
	headers map[string]*Header

	chunksRead    atomic.Uint64
	chunksWritten atomic.Uint64
	bytesWritten  atomic.Uint64
}

// Open opens the container at filePath. ModeAppend on a missing file falls
// back to ModeCreate; Created reports whether the call created the file.
func Open(ctx context.Context, filePath string, mode Mode, opts Options) (*File, error) {
	_, statErr := os.Stat(filePath)
	exists := statErr == nil
	if mode == ModeAppend && !exists {
		mode = ModeCreate
	}
	if mode == ModeCreate && exists {
		for _, p := range []string{filePath, filePath + "-journal"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("container: truncate %s: %w", filePath, err)
			}
		}
		exists = false
	}
	if mode == ModeRead && !exists {
		return nil, fmt.Errorf("container: open %s: %w", filePath, os.ErrNotExist)
	}
	dsn := sqliteutil.EnsurePragmas(sqliteutil.FileDSN(filePath, mode == ModeRead), opts.JournalMode, opts.BusyTimeoutMS)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("container: open %s: %w", filePath, err)
	}
	sqldb.SetMaxOpenConns(1)
	ret := &File{path: filePath, mode: mode, created: !exists, db: sqldb, headers: map[string]*Header{}}
	if err := ret.init(ctx, exists); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	if ret.created && opts.AccessMode != 0 {
		if err := os.Chmod(filePath, opts.AccessMode); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("container: chmod %s: %w", filePath, err)
		}
	}
	return ret, nil
}

func (f *File) init(ctx context.Context, exists bool) error {
	if exists {
		var appID int64
		if err := f.db.QueryRowContext(ctx, `PRAGMA application_id`).Scan(&appID); err != nil {
			return fmt.Errorf("container: open %s: %w", f.path, err)
		}
		if appID != ApplicationID {
			return fmt.Errorf("%w: %s", ErrNotContainer, f.path)
		}
	}
	if f.mode == ModeRead {
		return nil
	}
	return f.ensureSchema(ctx)
}

// ensureSchema creates the tables and the root group if missing.
func (f *File) ensureSchema(ctx context.Context) error {
	if _, err := f.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA application_id = %d`, ApplicationID)); err != nil {
		return fmt.Errorf("container: open %s: %w", f.path, err)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
            path TEXT PRIMARY KEY,
            kind INTEGER NOT NULL,
            header BLOB
        );`,
		`CREATE TABLE IF NOT EXISTS chunks (
            path TEXT NOT NULL,
            coord TEXT NOT NULL,
            data BLOB NOT NULL,
            checksum INTEGER NOT NULL,
            PRIMARY KEY (path, coord)
        );`,
		`CREATE TABLE IF NOT EXISTS attrs (
            path TEXT NOT NULL,
            name TEXT NOT NULL,
            value BLOB NOT NULL,
            PRIMARY KEY (path, name)
        );`,
	}
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("container: schema %s: %w", f.path, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO nodes(path, kind, header) VALUES(?, ?, NULL)`, RootPath, KindGroup); err != nil {
		return err
	}
	return tx.Commit()
}

// Path returns the physical file path.
func (f *File) Path() string { return f.path }

// Mode returns the effective open mode.
func (f *File) Mode() Mode { return f.mode }

// Created reports whether Open created the file.
func (f *File) Created() bool { return f.created }

// Valid reports whether the handle is open.
func (f *File) Valid() bool { return f != nil && f.db != nil }

// Stats returns I/O counters of this handle.
func (f *File) Stats() Stats {
	return Stats{
		ChunksRead:    f.chunksRead.Load(),
		ChunksWritten: f.chunksWritten.Load(),
		BytesWritten:  f.bytesWritten.Load(),
	}
}

// Close releases the handle. Closing twice is a no-op.
func (f *File) Close() error {
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	f.headers = map[string]*Header{}
	return err
}

// Refresh drops cached dataset headers so the next access reads them from
// the file. Call it whenever another handle may have written since the last access.
func (f *File) Refresh() {
	if f.Valid() {
		f.headers = map[string]*Header{}
	}
}

func (f *File) writable() error {
	if f.db == nil {
		return ErrClosed
	}
	if f.mode == ModeRead {
		return ErrReadOnly
	}
	return nil
}

// Exists reports whether a node exists at p.
func (f *File) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.Node(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Node returns the node at p.
func (f *File) Node(ctx context.Context, p string) (*Node, error) {
	if f.db == nil {
		return nil, ErrClosed
	}
	p = CleanPath(p)
	var kind NodeKind
	var header []byte
	err := f.db.QueryRowContext(ctx, `SELECT kind, header FROM nodes WHERE path = ?`, p).Scan(&kind, &header)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, err
	}
	ret := &Node{Path: p, Kind: kind}
	if kind == KindDataset {
		if ret.Header, err = unmarshalHeader(header); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return ret, nil
}

// Nodes lists p and every node below it in path order.
func (f *File) Nodes(ctx context.Context, p string) ([]Node, error) {
	if f.db == nil {
		return nil, ErrClosed
	}
	p = CleanPath(p)
	prefix := subtreePrefix(p)
	rows, err := f.db.QueryContext(ctx, `SELECT path, kind, header FROM nodes
        WHERE path = ? OR substr(path, 1, ?) = ? ORDER BY path`, p, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []Node
	for rows.Next() {
		var node Node
		var header []byte
		if err := rows.Scan(&node.Path, &node.Kind, &header); err != nil {
			return nil, err
		}
		if node.Kind == KindDataset {
			if node.Header, err = unmarshalHeader(header); err != nil {
				return nil, fmt.Errorf("%s: %w", node.Path, err)
			}
		}
		ret = append(ret, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return ret, nil
}

// ensureParents creates missing intermediate groups of p.
func ensureParents(ctx context.Context, tx *sql.Tx, p string) error {
	for _, parent := range parents(p) {
		var kind NodeKind
		err := tx.QueryRowContext(ctx, `SELECT kind FROM nodes WHERE path = ?`, parent).Scan(&kind)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `INSERT INTO nodes(path, kind, header) VALUES(?, ?, NULL)`, parent, KindGroup); err != nil {
				return err
			}
		case err != nil:
			return err
		case kind != KindGroup:
			return fmt.Errorf("%w: %s", ErrNotGroup, parent)
		}
	}
	return nil
}

// CreateGroup creates a group at p together with missing parents.
func (f *File) CreateGroup(ctx context.Context, p string) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := ensureParents(ctx, tx, p); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO nodes(path, kind, header) VALUES(?, ?, NULL)`, p, KindGroup)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	return tx.Commit()
}

// Delete removes the node at p with its subtree, chunks and attributes.
func (f *File) Delete(ctx context.Context, p string) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	if p == RootPath {
		return fmt.Errorf("container: cannot delete the root group")
	}
	prefix := subtreePrefix(p)
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var removed int64
	for _, table := range []string{"nodes", "chunks", "attrs"} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE path = ? OR substr(path, 1, ?) = ?`, p, len(prefix), prefix)
		if err != nil {
			return err
		}
		if table == "nodes" {
			removed, _ = res.RowsAffected()
		}
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for cached := range f.headers {
		if cached == p || strings.HasPrefix(cached, prefix) {
			delete(f.headers, cached)
		}
	}
	return nil
}

// SetAttr stores an attribute on the node at p.
func (f *File) SetAttr(ctx context.Context, p, name string, value meta.Value) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	if _, err := f.Node(ctx, p); err != nil {
		return err
	}
	_, err := f.db.ExecContext(ctx, `INSERT OR REPLACE INTO attrs(path, name, value) VALUES(?, ?, ?)`, p, name, marshalValue(value))
	return err
}

// DeleteAttr removes an attribute from the node at p.
func (f *File) DeleteAttr(ctx context.Context, p, name string) error {
	if err := f.writable(); err != nil {
		return err
	}
	p = CleanPath(p)
	if _, err := f.Node(ctx, p); err != nil {
		return err
	}
	res, err := f.db.ExecContext(ctx, `DELETE FROM attrs WHERE path = ? AND name = ?`, p, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s on %s", ErrAttrNotFound, name, p)
	}
	return nil
}

// Attrs returns every attribute of the node at p sorted by name.
func (f *File) Attrs(ctx context.Context, p string) ([]Attr, error) {
	p = CleanPath(p)
	if _, err := f.Node(ctx, p); err != nil {
		return nil, err
	}
	rows, err := f.db.QueryContext(ctx, `SELECT name, value FROM attrs WHERE path = ?`, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []Attr
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		value, err := unmarshalValue(data)
		if err != nil {
			return nil, fmt.Errorf("%s@%s: %w", p, name, err)
		}
		ret = append(ret, Attr{Name: name, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

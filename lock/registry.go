// Package lock serializes access to physical files. A Registry hands out one
// mutex per path; every handle pointed at the same path contends on it.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Registry maps physical paths to mutexes. Entries are created on first use
// and never removed, so the registry grows with the number of distinct paths.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	fileLocks bool
}

type entry struct {
	mu   sync.Mutex
	file *os.File
}

// Option configures a Registry.
type Option func(r *Registry)

// WithFileLocks additionally takes an exclusive OS advisory lock on a
// "<path>.lock" sidecar file while a path is held, which extends the
// exclusion to other processes.
func WithFileLocks(enabled bool) Option {
	return func(r *Registry) { r.fileLocks = enabled }
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	ret := &Registry{entries: map[string]*entry{}}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var (
	process     *Registry
	processOnce sync.Once
)

// Process returns the registry shared by the whole process.
func Process() *Registry {
	processOnce.Do(func() { process = New() })
	return process
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (r *Registry) get(path string, create bool) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(path)
	ret, ok := r.entries[k]
	if !ok && create {
		ret = &entry{}
		r.entries[k] = ret
	}
	return ret
}

// Acquire blocks until path is held by the caller.
func (r *Registry) Acquire(path string) error {
	e := r.get(path, true)
	e.mu.Lock()
	if _, err := r.lockSidecar(e, path, true); err != nil {
		e.mu.Unlock()
		return err
	}
	return nil
}

// TryAcquire is Acquire without blocking; it reports whether path was taken.
func (r *Registry) TryAcquire(path string) (bool, error) {
	e := r.get(path, true)
	if !e.mu.TryLock() {
		return false, nil
	}
	ok, err := r.lockSidecar(e, path, false)
	if !ok {
		e.mu.Unlock()
	}
	return ok, err
}

// lockSidecar holds "<path>.lock" for the entry when file locks are enabled.
func (r *Registry) lockSidecar(e *entry, path string, block bool) (bool, error) {
	if !r.fileLocks {
		return true, nil
	}
	f, err := os.OpenFile(key(path)+".lock", os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return false, fmt.Errorf("lock: open %s.lock: %w", path, err)
	}
	ok, err := flock(f, block)
	if !ok {
		_ = f.Close()
		if err != nil {
			return false, fmt.Errorf("lock: %s: %w", path, err)
		}
		return false, nil
	}
	e.file = f
	return true, nil
}

// Release gives path back. Releasing a path that was never acquired is a
// programming error and panics.
func (r *Registry) Release(path string) {
	e := r.get(path, false)
	if e == nil {
		panic(fmt.Sprintf("lock: release of %s which was never acquired", path))
	}
	if f := e.file; f != nil {
		e.file = nil
		_ = funlock(f)
		_ = f.Close()
	}
	e.mu.Unlock()
}

// Len returns the number of paths the registry has seen.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

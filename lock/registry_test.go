package lock

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SamePathExcludes(t *testing.T) {
	registry := New()
	path := filepath.Join(t.TempDir(), "data.h5")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, registry.Acquire(path))
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			registry.Release(path)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_DifferentPathsDoNotBlock(t *testing.T) {
	registry := New()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	require.NoError(t, registry.Acquire(a))
	defer registry.Release(a)

	ok, err := registry.TryAcquire(b)
	require.NoError(t, err)
	assert.True(t, ok)
	registry.Release(b)

	ok, err = registry.TryAcquire(a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_EquivalentPathsShareEntry(t *testing.T) {
	registry := New()
	dir := t.TempDir()
	require.NoError(t, registry.Acquire(filepath.Join(dir, "x", "..", "f")))
	ok, err := registry.TryAcquire(filepath.Join(dir, "f"))
	require.NoError(t, err)
	assert.False(t, ok)
	registry.Release(filepath.Join(dir, "f"))
}

func TestRegistry_ReleaseUnknownPanics(t *testing.T) {
	registry := New()
	assert.Panics(t, func() { registry.Release("/never/seen") })
}

func TestRegistry_FileLocks(t *testing.T) {
	registry := New(WithFileLocks(true))
	path := filepath.Join(t.TempDir(), "data.h5")
	require.NoError(t, registry.Acquire(path))
	assert.FileExists(t, path+".lock")

	other := New(WithFileLocks(true))
	ok, err := other.TryAcquire(path)
	require.NoError(t, err)
	assert.False(t, ok, "a second registry must not take the OS lock")

	registry.Release(path)
	ok, err = other.TryAcquire(path)
	require.NoError(t, err)
	assert.True(t, ok)
	other.Release(path)
}

func TestProcess(t *testing.T) {
	assert.Same(t, Process(), Process())
}

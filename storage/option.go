package storage

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/lock"
	"github.com/viant/arrayfile/meta"
)

const (
	// DefaultBufferSize is the pending append size in bytes that triggers a flush.
	DefaultBufferSize = 600000
	// DefaultNamespace prefixes namespaced metadata keys.
	DefaultNamespace = "AF_"
	// DefaultAccessMode is applied to newly created files.
	DefaultAccessMode os.FileMode = 0o640
	// DefaultDataVersion is stamped on the root of every new file.
	DefaultDataVersion = 1

	// VersionKey is the (namespaced) root attribute holding the data version.
	VersionKey = "data_version"
	// GIDKey is the (namespaced) root attribute holding the global identifier.
	GIDKey = "gid"
)

// Option configures a Manager.
type Option func(m *Manager)

// WithBufferSize sets the append buffer threshold in bytes.
func WithBufferSize(bytes int) Option {
	return func(m *Manager) { m.bufferSize = bytes }
}

// WithRegistry sets the lock registry shared by managers that must exclude each other.
func WithRegistry(registry *lock.Registry) Option {
	return func(m *Manager) { m.registry = registry }
}

// WithFileLocks shares a process wide registry that also holds OS advisory
// locks, so managers in other processes are excluded too.
func WithFileLocks(enabled bool) Option {
	return func(m *Manager) {
		if enabled {
			m.registry = fileLockRegistry()
		}
	}
}

var (
	fileLocks     *lock.Registry
	fileLocksOnce sync.Once
)

func fileLockRegistry() *lock.Registry {
	fileLocksOnce.Do(func() { fileLocks = lock.New(lock.WithFileLocks(true)) })
	return fileLocks
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithAccessMode sets the permission bits of created files.
func WithAccessMode(mode os.FileMode) Option {
	return func(m *Manager) { m.fileOptions.AccessMode = mode }
}

// WithDataVersion sets the version stamped on new files.
func WithDataVersion(version meta.Value) Option {
	return func(m *Manager) { m.dataVersion = version }
}

// WithNamespace sets the prefix of namespaced metadata keys.
func WithNamespace(prefix string) Option {
	return func(m *Manager) { m.namespace = prefix }
}

// WithCompression sets the chunk codec of datasets created by the manager.
func WithCompression(codec container.Codec) Option {
	return func(m *Manager) { m.codec = codec }
}

// WithBusyTimeout sets how long an open waits on a file held by another handle.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(m *Manager) { m.fileOptions.BusyTimeoutMS = int(timeout / time.Millisecond) }
}

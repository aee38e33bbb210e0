package storage

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

var fs = afs.New()

// Backup flushes and closes the file, then copies it to destURL. Any URL
// scheme registered with afs is accepted; a plain path writes to local disk.
func (m *Manager) Backup(ctx context.Context, destURL string) error {
	const op = "backup"
	if err := m.acquire(op); err != nil {
		return err
	}
	defer m.release()
	if err := m.closeFile(ctx); err != nil {
		return newError(KindStructure, op, m.path, err)
	}
	source, err := filepath.Abs(m.path)
	if err != nil {
		return newError(KindStructure, op, m.path, err)
	}
	if exists, err := fs.Exists(ctx, source); err != nil || !exists {
		return newError(KindMissingFile, op, m.path, err)
	}
	data, err := fs.DownloadWithURL(ctx, source)
	if err != nil {
		return newError(KindStructure, op, m.path, err)
	}
	if err := fs.Upload(ctx, destURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return newError(KindStructure, op, destURL, err)
	}
	m.logger.Info("backed up file", "path", m.path, "dest", destURL, "bytes", len(data))
	return nil
}

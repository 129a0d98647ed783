package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter provides atomic file write operations using temp file + rename.
// The target path never holds a partially written file: it either keeps its
// previous content or receives the complete new content on Commit.
type AtomicWriter struct {
	path    string
	tmpPath string
	file    *os.File
	done    bool
}

// NewAtomicWriter creates a writer for atomic file updates. The temporary
// file lives in the target's directory so the final rename stays on one
// filesystem.
func NewAtomicWriter(path string) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".birdsync-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &AtomicWriter{
		path:    path,
		tmpPath: tmpFile.Name(),
		file:    tmpFile,
	}, nil
}

// Write writes data to the temporary file.
func (w *AtomicWriter) Write(p []byte) (n int, err error) {
	return w.file.Write(p)
}

// Commit syncs and closes the temporary file, then renames it over the target.
// When Commit returns nil the data is on disk and the file handle is released.
func (w *AtomicWriter) Commit() error {
	if w.done {
		return fmt.Errorf("commit %s: writer already finished", w.path)
	}
	w.done = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		os.Remove(w.tmpPath)
		return fmt.Errorf("sync: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(w.tmpPath, 0644); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Abort discards the temporary file without committing. It is a no-op after
// Commit, so it can be deferred unconditionally.
func (w *AtomicWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.file.Close()
	return os.Remove(w.tmpPath)
}

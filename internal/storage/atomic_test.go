package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriter_CommitThenAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter() error = %v", err)
	}
	w.Write([]byte("hello"))
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	// A deferred Abort after Commit must not remove the committed file.
	if err := w.Abort(); err != nil {
		t.Errorf("Abort() after Commit error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
	if err := w.Commit(); err == nil {
		t.Error("second Commit() should fail")
	}
}

func TestAtomicWriter_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter() error = %v", err)
	}
	w.Write([]byte("discard me"))
	if err := w.Abort(); err != nil {
		t.Errorf("Abort() error = %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory not empty after Abort: %v", entries)
	}
}

func TestAtomicWriter_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "out.txt")
	if _, err := NewAtomicWriter(path); err == nil {
		t.Error("NewAtomicWriter() should fail when the directory is missing")
	}
}

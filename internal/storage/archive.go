package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Artifact file extensions. The metadata file doubles as the "already
// downloaded" marker for an episode.
const (
	MetadataExt  = ".csv"
	ThumbnailExt = ".jpg"
	VideoExt     = ".mp4"
)

// MetadataHeader is the first line of every metadata file.
const MetadataHeader = "id,title,favorite,uploaded,duration,thumbnail,video"

// lockName is the advisory lock held by a run, relative to the archive directory.
const lockName = ".birdsync"

// Record is the metadata persisted for one episode.
type Record struct {
	ID           string
	Title        string
	Favorite     bool
	RecordedAt   string
	Duration     float64 // seconds
	ThumbnailURL string
	VideoURL     string
}

// Paths holds the three sibling files of an episode.
type Paths struct {
	Metadata  string
	Thumbnail string
	Video     string
}

// Archive is a flat directory of <id>.csv/.jpg/.mp4 triples.
type Archive struct {
	dir  string
	lock *FileLock
}

// Open returns the archive rooted at dir. When create is true a missing
// directory is created, otherwise it must already exist.
func Open(dir string, create bool) (*Archive, error) {
	if dir == "" {
		return nil, &StorageError{Op: "open", Entity: "archive", Err: ErrInvalidInput}
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, &StorageError{Op: "open", Entity: "archive", ID: dir, Err: ErrNotDirectory}
		}
	case errors.Is(err, os.ErrNotExist) && create:
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StorageError{Op: "open", Entity: "archive", ID: dir, Err: err}
		}
	default:
		return nil, &StorageError{Op: "open", Entity: "archive", ID: dir, Err: err}
	}

	return &Archive{
		dir:  dir,
		lock: NewFileLock(filepath.Join(dir, lockName)),
	}, nil
}

// Dir returns the archive directory.
func (a *Archive) Dir() string { return a.dir }

// Lock takes the archive's run lock so two runs never write the same triple.
func (a *Archive) Lock(timeout time.Duration) error {
	return a.lock.Lock(timeout)
}

// Unlock releases the run lock.
func (a *Archive) Unlock() error {
	return a.lock.Unlock()
}

// Paths returns the artifact paths for an episode ID.
func (a *Archive) Paths(id string) Paths {
	base := filepath.Join(a.dir, id)
	return Paths{
		Metadata:  base + MetadataExt,
		Thumbnail: base + ThumbnailExt,
		Video:     base + VideoExt,
	}
}

// HasMetadata reports whether the episode's metadata file exists. The
// thumbnail and video are not checked.
func (a *Archive) HasMetadata(id string) bool {
	_, err := os.Stat(a.Paths(id).Metadata)
	return err == nil
}

// FormatMetadata renders the two-line metadata file. Fields are joined with
// commas verbatim; a title containing a comma or quote is not escaped.
func FormatMetadata(rec Record) string {
	row := []string{
		rec.ID,
		rec.Title,
		strconv.FormatBool(rec.Favorite),
		rec.RecordedAt,
		strconv.FormatFloat(rec.Duration, 'f', -1, 64) + " s",
		rec.ThumbnailURL,
		rec.VideoURL,
	}
	return MetadataHeader + "\n" + strings.Join(row, ",") + "\n"
}

// WriteMetadata writes <id>.csv and returns its path.
func (a *Archive) WriteMetadata(rec Record) (string, error) {
	if err := validID(rec.ID); err != nil {
		return "", &StorageError{Op: "write", Entity: "metadata", ID: rec.ID, Err: err}
	}
	path := a.Paths(rec.ID).Metadata
	err := a.WriteArtifact(path, func(w io.Writer) error {
		_, err := io.WriteString(w, FormatMetadata(rec))
		return err
	})
	if err != nil {
		return path, err
	}
	return path, nil
}

// WriteArtifact creates path from the bytes fill writes. It returns only once
// the file is synced, closed and in place; on failure no file is left at path.
func (a *Archive) WriteArtifact(path string, fill func(io.Writer) error) error {
	w, err := NewAtomicWriter(path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "artifact", ID: path, Err: err}
	}
	defer w.Abort()

	if err := fill(w); err != nil {
		return &StorageError{Op: "write", Entity: "artifact", ID: path, Err: err}
	}
	if err := w.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "artifact", ID: path, Err: err}
	}
	return nil
}

// validID rejects IDs that would escape the archive directory.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: episode id %q", ErrInvalidInput, id)
	}
	return nil
}

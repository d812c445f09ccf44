package store

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// uniqueSuffix returns a short unique token for building collision-free
// temp file names when multiple goroutines may write the same final
// path concurrently (the shared .db_version marker, written once per
// repo update).
func uniqueSuffix() string {
	return uuid.NewString()
}

// atomicReplace writes data to tmp, fsyncs it, and renames it over
// path. If mtime is non-zero, path's mtime is set to it after the
// rename. tmp and path must be on the same filesystem (same directory)
// for the rename to be atomic.
func atomicReplace(tmp, path string, data []byte, mtime time.Time) error {
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", tmp, err)
	}
	if err := writeSyncClose(f, data); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: rename %s to %s: %w", tmp, path, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			return fmt.Errorf("store: set mtime on %s: %w", path, err)
		}
	}
	return nil
}

func writeSyncClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("store: write %s: %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("store: fsync %s: %w", f.Name(), err)
	}
	return f.Close()
}

// syncingFile wraps *os.File so the Close that pkgdb.Encode calls after
// writing each chunk fsyncs before closing, satisfying the
// write-fully/fsync/rename sequence without changing pkgdb's
// io.WriteCloser contract.
type syncingFile struct {
	*os.File
}

func (f syncingFile) Close() error {
	if err := f.File.Sync(); err != nil {
		f.File.Close()
		return fmt.Errorf("store: fsync %s: %w", f.File.Name(), err)
	}
	return f.File.Close()
}

package store

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/falconindy/pkgfile/internal/cachedir"
	"github.com/falconindy/pkgfile/internal/pkgdb"
)

// ReplaceRepo encodes it into one or more chunks for repo under dir,
// writing each through a temp-file-then-rename sequence, then unlinks
// any residual chunk whose index is >= the new chunk count. Every new
// chunk's mtime is set to mtime (the upstream archive's Last-Modified,
// or the zero Time to leave it at the write time).
//
// All chunks are written to temp files before any is renamed, and
// residuals are removed last. A crash before the renames leaves the old
// database intact; each rename replaces one chunk atomically, but a
// crash between renames can leave a mix of new and old chunks.
func ReplaceRepo(dir cachedir.Dir, repo string, it pkgdb.Iterator, targetBytes int64, mtime time.Time) (int, error) {
	type written struct {
		tmp, final string
	}
	var chunks []written

	newWriter := func(idx int) (io.WriteCloser, error) {
		final := ChunkPath(dir, repo, idx)
		tmp := final + ".tmp"
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("store: create temp chunk %s: %w", tmp, err)
		}
		chunks = append(chunks, written{tmp, final})
		return syncingFile{f}, nil
	}

	count, err := pkgdb.Encode(it, targetBytes, newWriter)
	if err != nil {
		for _, c := range chunks {
			os.Remove(c.tmp)
		}
		return 0, fmt.Errorf("store: encode %s: %w", repo, err)
	}

	for _, c := range chunks {
		if err := os.Rename(c.tmp, c.final); err != nil {
			return 0, fmt.Errorf("store: rename %s to %s: %w", c.tmp, c.final, err)
		}
		if !mtime.IsZero() {
			if err := os.Chtimes(c.final, mtime, mtime); err != nil {
				return 0, fmt.Errorf("store: set mtime on %s: %w", c.final, err)
			}
		}
	}

	if err := removeResidual(dir, repo, count); err != nil {
		return count, err
	}

	return count, nil
}

// removeResidual deletes any existing chunk for repo whose index is >=
// keep, left over from a previous run with a larger chunk count.
func removeResidual(dir cachedir.Dir, repo string, keep int) error {
	existing, err := Chunks(dir, repo)
	if err != nil {
		return err
	}
	for i := keep; i < len(existing); i++ {
		if err := os.Remove(existing[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove residual chunk %s: %w", existing[i], err)
		}
	}
	return nil
}

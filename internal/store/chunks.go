package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/falconindy/pkgfile/internal/cachedir"
)

// The zero-padded index width is fixed by the on-disk naming contract:
// "<repo>.files.NNN".
const chunkIndexDigits = 3

// ChunkPath returns the on-disk path of chunk idx for repo.
func ChunkPath(dir cachedir.Dir, repo string, idx int) string {
	return filepath.Join(dir.Root(), fmt.Sprintf("%s.files.%0*d", repo, chunkIndexDigits, idx))
}

// Chunks returns repo's existing chunk paths in ascending index order.
// A missing cache directory is reported as no chunks, not an error.
func Chunks(dir cachedir.Dir, repo string) ([]string, error) {
	entries, err := os.ReadDir(dir.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read cache dir: %w", err)
	}

	prefix := repo + ".files."
	type indexed struct {
		idx  int
		name string
	}
	var found []indexed
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil {
			continue // e.g. a stray "<repo>.files.NNN.tmp" left by an aborted update
		}
		found = append(found, indexed{n, name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].idx < found[j].idx })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = filepath.Join(dir.Root(), f.name)
	}
	return paths, nil
}

// ReferenceMtime returns the minimum integer-second mtime across repo's
// existing chunks, used as the soft-update If-Modified-Since baseline.
// It returns ok=false when the repo has no chunks yet (force semantics).
func ReferenceMtime(dir cachedir.Dir, repo string) (t int64, ok bool) {
	paths, err := Chunks(dir, repo)
	if err != nil || len(paths) == 0 {
		return 0, false
	}

	first := true
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		sec := info.ModTime().Unix()
		if first || sec < t {
			t = sec
			first = false
		}
	}
	return t, !first
}

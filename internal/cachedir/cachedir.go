// Package cachedir resolves the pkgfile cache directory: the location on
// disk that holds the version marker and the per-repo chunk files.
//
// Layout:
//
//	<root>/
//	  .db_version        (ASCII decimal integer, see internal/store)
//	  <repo>.files.NNN    (one or more chunks per configured repo)
package cachedir

import (
	"fmt"
	"os"
)

// defaultRoot is the conventional system-wide location pacman-family
// tools use for this kind of cache: shared and rooted outside any
// particular user's home directory.
const defaultRoot = "/var/cache/pkgfile"

// Dir represents a resolved pkgfile cache directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir at the conventional system cache location.
func Default() Dir {
	return Dir{root: defaultRoot}
}

// Root returns the cache directory path.
func (d Dir) Root() string {
	return d.root
}

// VersionMarkerPath returns the path to the .db_version marker file.
func (d Dir) VersionMarkerPath() string {
	return d.root + "/.db_version"
}

// EnsureExists creates the cache directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", d.root, err)
	}
	return nil
}

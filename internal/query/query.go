// Package query answers search and list queries against the repo
// chunks written by the update pipeline: scanning mmap'd packages and
// their file entries with predicate pushdown, and formatting matches
// the way the CLI expects them on stdout.
package query

import "strings"

// MatchKind selects how a search target is compared against file
// entries.
type MatchKind int

const (
	MatchBasename MatchKind = iota
	MatchFullpath
	MatchDirectory
	MatchGlob
	MatchRegex
)

// Mode selects whether a Query searches for packages owning a path or
// lists the files of a package.
type Mode int

const (
	ModeSearch Mode = iota
	ModeList
)

// Options carries every flag that shapes a query's matching and output.
type Options struct {
	Mode   Mode
	Target string

	Regex     bool
	Glob      bool
	Directory bool

	CaseInsensitive bool

	// Search-only
	Verbose bool

	// List-only
	Quiet    bool
	Raw      bool
	Binaries bool
}

// matchKind resolves the explicit MatchKind implied by the search flags.
// With neither --regex nor --glob nor --directory set, a target
// containing a "/" is matched against the full path rather than just
// the basename — this mirrors the behavior of the real upstream tool
// this engine's output format is pinned to (see DESIGN.md).
func (o Options) matchKind() MatchKind {
	switch {
	case o.Regex:
		return MatchRegex
	case o.Glob:
		return MatchGlob
	case o.Directory:
		return MatchDirectory
	case strings.Contains(o.Target, "/"):
		return MatchFullpath
	default:
		return MatchBasename
	}
}

// binaryDirs are the directories list --binaries restricts output to.
var binaryDirs = []string{
	"/bin/", "/sbin/", "/usr/bin/", "/usr/sbin/", "/usr/local/bin/", "/usr/local/sbin/",
}

func isBinaryPath(path string) bool {
	if strings.HasSuffix(path, "/") {
		return false // a directory entry itself, not a file within one
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	dir, _ := splitPath(path)
	dir += "/"
	for _, d := range binaryDirs {
		if dir == d {
			return true
		}
	}
	return false
}

// splitPath splits "a/b/c" into ("a/b", "c"); a path with no "/" splits
// into ("", path).
func splitPath(path string) (dir, base string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

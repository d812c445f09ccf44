package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathPredicate reports whether a file entry (as stored: always
// "/"-rooted) is a match for a compiled query. Each query is compiled
// once. For --regex the case-insensitive flag is folded into the
// compiled pattern; the other kinds lower-case the target (basename,
// fullpath, directory) at compile time but still lower-case every
// scanned path, and --glob lower-cases both its pattern and the path
// on every entry.
type pathPredicate func(path string) bool

// compilePredicate builds the matcher for search mode from the resolved
// MatchKind. It returns an error only for --regex/--glob targets that
// fail to compile, which is fatal for the invocation per spec.md §7.
func compilePredicate(o Options) (pathPredicate, error) {
	target := o.Target
	fold := o.CaseInsensitive

	switch o.matchKind() {
	case MatchRegex:
		pattern := target
		if fold {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("query: compile regex %q: %w", target, err)
		}
		return func(path string) bool { return re.MatchString(path) }, nil

	case MatchGlob:
		pattern := target
		matchDirs := strings.HasSuffix(pattern, "/")
		return func(path string) bool {
			if strings.HasSuffix(path, "/") && !matchDirs {
				return false
			}
			p, pat := path, pattern
			if fold {
				p = strings.ToLower(p)
				pat = strings.ToLower(pat)
			}
			ok, _ := doublestar.Match(pat, p)
			return ok
		}, nil

	case MatchDirectory:
		requireDir := strings.HasSuffix(target, "/")
		want := strings.TrimSuffix(target, "/")
		if fold {
			want = strings.ToLower(want)
		}
		return func(path string) bool {
			isDir := strings.HasSuffix(path, "/")
			if requireDir && !isDir {
				return false
			}
			_, base := splitPath(strings.TrimSuffix(path, "/"))
			if fold {
				base = strings.ToLower(base)
			}
			return base == want
		}, nil

	case MatchFullpath:
		want := target
		if fold {
			want = strings.ToLower(want)
		}
		return func(path string) bool {
			p := path
			if fold {
				p = strings.ToLower(p)
			}
			return p == want
		}, nil

	default: // MatchBasename
		want := target
		if fold {
			want = strings.ToLower(want)
		}
		return func(path string) bool {
			if strings.HasSuffix(path, "/") {
				return false // directory entries only match with --directory
			}
			_, base := splitPath(path)
			if fold {
				base = strings.ToLower(base)
			}
			return base == want
		}, nil
	}
}

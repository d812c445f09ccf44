package query

import (
	"fmt"
	"regexp"
	"strings"
)

// parseListTarget splits "[<repo>/]<pkgname-or-pattern>" into an
// optional repo restriction and the package name/pattern.
func parseListTarget(target string) (repo, name string, hasRepo bool) {
	if i := strings.IndexByte(target, '/'); i >= 0 {
		return target[:i], target[i+1:], true
	}
	return "", target, false
}

// ListMatch is every file entry of one matched package.
type ListMatch struct {
	Repo    string
	Pkg     string
	Version string
	Files   []string
}

// List resolves o's target to one or more packages and returns their
// file entries (directories included, per spec.md's "list emits
// directory entries too"), optionally filtered to standard binary
// directories.
func (e *Engine) List(o Options) ([]ListMatch, error) {
	repoFilter, nameTarget, hasRepo := parseListTarget(o.Target)

	var nameMatches func(name string) bool
	if o.Regex {
		pattern := nameTarget
		if o.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("query: compile regex %q: %w", nameTarget, err)
		}
		nameMatches = re.MatchString
	} else {
		want := nameTarget
		if o.CaseInsensitive {
			want = strings.ToLower(want)
		}
		nameMatches = func(name string) bool {
			if o.CaseInsensitive {
				name = strings.ToLower(name)
			}
			return name == want
		}
	}

	var results []ListMatch
	for _, rc := range e.repos {
		if hasRepo && rc.name != repoFilter {
			continue
		}
		for _, r := range rc.readers {
			for i := range r.Len() {
				pkg := r.Package(i)
				if !nameMatches(pkg.Name()) {
					continue
				}
				files := pkg.Files()
				if o.Binaries {
					files = filterBinaries(files)
				}
				results = append(results, ListMatch{
					Repo:    rc.name,
					Pkg:     pkg.Name(),
					Version: pkg.Version(),
					Files:   files,
				})
			}
		}
	}
	return results, nil
}

func filterBinaries(files []string) []string {
	out := files[:0:0]
	for _, f := range files {
		if isBinaryPath(f) {
			out = append(out, f)
		}
	}
	return out
}

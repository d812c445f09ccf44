package query

import (
	"fmt"

	"github.com/falconindy/pkgfile/internal/cachedir"
	"github.com/falconindy/pkgfile/internal/pkgdb"
	"github.com/falconindy/pkgfile/internal/store"
)

// repoChunks is one configured repo's open chunk readers, kept in
// ascending chunk-index order.
type repoChunks struct {
	name    string
	readers []*pkgdb.Reader
}

// Engine scans the chunks of a fixed, ordered set of configured repos.
// Output ordering follows this configured order, not lexicographic repo
// order, per spec.md §4.3's "configured-repo order" requirement.
type Engine struct {
	repos []repoChunks
}

// Open mmaps every chunk of every repo in repoNames (in that order) and
// returns an Engine ready to run queries. A repo with no chunks yet is
// included with zero readers rather than erroring, so a freshly
// configured but never-updated repo just contributes no matches.
func Open(dir cachedir.Dir, repoNames []string) (*Engine, error) {
	e := &Engine{}
	for _, name := range repoNames {
		paths, err := store.Chunks(dir, name)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("query: list chunks for %s: %w", name, err)
		}
		rc := repoChunks{name: name}
		for _, p := range paths {
			r, err := pkgdb.Open(p)
			if err != nil {
				e.Close()
				return nil, fmt.Errorf("query: open chunk %s: %w", p, err)
			}
			rc.readers = append(rc.readers, r)
		}
		e.repos = append(e.repos, rc)
	}
	return e, nil
}

// Close releases every open chunk mapping.
func (e *Engine) Close() error {
	var firstErr error
	for _, rc := range e.repos {
		for _, r := range rc.readers {
			if err := r.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

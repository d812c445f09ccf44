package query

// FileMatch is one matching (package, file) pair produced by Search.
type FileMatch struct {
	Repo    string
	Pkg     string
	Version string
	Path    string
}

// Search scans every configured repo's chunks for file entries matching
// o, in configured-repo order then upstream archive order within a
// package. A package contributes at most one line to default (non
// verbose) output, but Search itself always returns every matching file
// entry — collapsing to one-per-package happens in formatting, since
// --verbose needs every entry.
func (e *Engine) Search(o Options) ([]FileMatch, error) {
	predicate, err := compilePredicate(o)
	if err != nil {
		return nil, err
	}

	var matches []FileMatch
	for _, rc := range e.repos {
		for _, r := range rc.readers {
			for i := range r.Len() {
				pkg := r.Package(i)
				pkg.ForEachFile(func(raw []byte) bool {
					path := string(raw)
					if predicate(path) {
						matches = append(matches, FileMatch{
							Repo:    rc.name,
							Pkg:     pkg.Name(),
							Version: pkg.Version(),
							Path:    path,
						})
					}
					return true
				})
			}
		}
	}
	return matches, nil
}

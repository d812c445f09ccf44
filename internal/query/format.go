package query

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Run executes o against e and writes formatted output to w, returning
// whether at least one match was produced (the exit-code signal per
// spec.md §4.3 — "0 on >=1 match, non-zero on zero matches").
func (e *Engine) Run(o Options, w io.Writer) (bool, error) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	switch o.Mode {
	case ModeList:
		return e.runList(o, bw)
	default:
		return e.runSearch(o, bw)
	}
}

func (e *Engine) runSearch(o Options, w *bufio.Writer) (bool, error) {
	matches, err := e.Search(o)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, nil
	}

	if o.Verbose {
		writeVerboseSearch(w, matches)
		return true, nil
	}

	// Default: one repo/pkgname line per matching package, each at most
	// once, grouped by repo in configured order (the order Search's
	// repo loop already produced), pkgname lexicographic within a repo.
	type key struct{ repo, pkg string }
	seen := make(map[key]bool)
	var repoOrder []string
	byRepo := make(map[string][]string)
	for _, m := range matches {
		k := key{m.Repo, m.Pkg}
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := byRepo[m.Repo]; !ok {
			repoOrder = append(repoOrder, m.Repo)
		}
		byRepo[m.Repo] = append(byRepo[m.Repo], m.Pkg)
	}
	for _, repo := range repoOrder {
		pkgs := byRepo[repo]
		sort.Strings(pkgs)
		for _, pkg := range pkgs {
			fmt.Fprintf(w, "%s/%s\n", repo, pkg)
		}
	}
	return true, nil
}

// writeVerboseSearch writes "repo/pkgname version\tpath" per matching
// file entry, padding "repo/pkgname version" with spaces so that every
// line in a contiguous same-repo run aligns to that run's longest
// column, per original_source/tests's column-alignment behavior.
func writeVerboseSearch(w *bufio.Writer, matches []FileMatch) {
	type line struct {
		col  string
		path string
	}

	flush := func(group []line) {
		width := 0
		for _, l := range group {
			if len(l.col) > width {
				width = len(l.col)
			}
		}
		for _, l := range group {
			fmt.Fprintf(w, "%-*s\t%s\n", width, l.col, l.path)
		}
	}

	var group []line
	currentRepo := ""
	for i, m := range matches {
		col := fmt.Sprintf("%s/%s %s", m.Repo, m.Pkg, m.Version)
		if i > 0 && m.Repo != currentRepo {
			flush(group)
			group = nil
		}
		currentRepo = m.Repo
		group = append(group, line{col: col, path: m.Path})
	}
	flush(group)
}

func (e *Engine) runList(o Options, w *bufio.Writer) (bool, error) {
	matches, err := e.List(o)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, nil
	}

	if o.Quiet {
		for _, m := range matches {
			for _, f := range m.Files {
				fmt.Fprintln(w, f)
			}
		}
		return true, nil
	}

	if o.Raw {
		for _, m := range matches {
			prefix := m.Repo + "/" + m.Pkg
			for _, f := range m.Files {
				fmt.Fprintf(w, "%s\t%s\n", prefix, f)
			}
		}
		return true, nil
	}

	width := 0
	for _, m := range matches {
		if n := len(m.Repo) + 1 + len(m.Pkg); n > width {
			width = n
		}
	}
	for _, m := range matches {
		prefix := m.Repo + "/" + m.Pkg
		for _, f := range m.Files {
			fmt.Fprintf(w, "%-*s\t%s\n", width, prefix, f)
		}
	}
	return true, nil
}

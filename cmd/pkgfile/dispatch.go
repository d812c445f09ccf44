package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/falconindy/pkgfile/internal/pacmanconf"
	"github.com/falconindy/pkgfile/internal/query"
	"github.com/falconindy/pkgfile/internal/store"
	"github.com/falconindy/pkgfile/internal/update"
)

// Exit codes. 0 is success (>=1 match, or a fully successful update); 1
// covers ordinary failures (no match, repo fetch failure, bad query);
// 2 is a usage error caught before any work runs.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// runUpdate drives the update pipeline and reports per-repo outcomes on
// stderr. It returns exitOK only if every configured repo ended up
// current, matching spec.md §4.4's exit-code rule.
func runUpdate(ctx context.Context, f *cliFlags, cfg *pacmanconf.Config, logger *slog.Logger, stderr io.Writer) int {
	rc := pacmanconf.Resolve(cfg, pacmanconf.Overrides{
		CacheDir:       f.cacheDir,
		RepoChunkBytes: f.repoChunkBytes,
	})
	force := f.updateCount > 1

	outcomes, allOK, err := update.Run(ctx, rc, force, logger)
	if err != nil {
		fmt.Fprintln(stderr, "pkgfile:", err)
		return exitFailure
	}

	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(stderr, "pkgfile: %s: %v\n", o.Repo, o.Err)
		case o.UpToDate:
			fmt.Fprintf(stderr, "pkgfile: %s is up to date\n", o.Repo)
		default:
			fmt.Fprintf(stderr, "pkgfile: %s updated\n", o.Repo)
		}
	}

	if !allOK {
		return exitFailure
	}
	return exitOK
}

// runQuery opens the configured repos read-only and runs a single
// search or list query, writing formatted matches to stdout.
func runQuery(f *cliFlags, cfg *pacmanconf.Config, stdout, stderr io.Writer) int {
	rc := pacmanconf.Resolve(cfg, pacmanconf.Overrides{
		CacheDir:       f.cacheDir,
		RepoChunkBytes: f.repoChunkBytes,
	})

	if err := store.CheckVersion(rc.CacheDir); err != nil {
		fmt.Fprintln(stderr, "pkgfile:", err)
		return exitFailure
	}

	engine, err := query.Open(rc.CacheDir, rc.RepoNames())
	if err != nil {
		fmt.Fprintln(stderr, "pkgfile:", err)
		return exitFailure
	}
	defer engine.Close()

	o := query.Options{
		Target:          f.target,
		Regex:           f.regex,
		Glob:            f.glob,
		Directory:       f.directory,
		CaseInsensitive: f.caseInsensitive,
		Verbose:         f.verbose,
		Quiet:           f.quiet,
		Raw:             f.raw,
		Binaries:        f.binaries,
	}
	if f.list {
		o.Mode = query.ModeList
	} else {
		o.Mode = query.ModeSearch
	}

	matched, err := engine.Run(o, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "pkgfile:", err)
		return exitFailure
	}
	if !matched {
		return exitFailure
	}
	return exitOK
}

// Package update implements the per-repo conditional fetch pipeline:
// candidate mirror selection, conditional GET with failover, archive
// decode, chunk encode, and atomic store replacement, fanned out across
// configured repos with a bounded worker pool.
package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/falconindy/pkgfile/internal/archive"
	"github.com/falconindy/pkgfile/internal/logging"
	"github.com/falconindy/pkgfile/internal/pacmanconf"
	"github.com/falconindy/pkgfile/internal/store"
)

// Outcome is the per-repo result of one update invocation.
type Outcome struct {
	Repo     string
	UpToDate bool
	Err      error
}

// Success reports whether the repo needs no caller-visible action:
// already current, or refreshed without error.
func (o Outcome) Success() bool { return o.Err == nil }

// maxWorkers bounds concurrent repo fetches. Fixed at
// min(8, runtime.NumCPU()*2): an implementation-chosen default, per
// spec.md §4.4's "no external dependency on ordering".
func maxWorkers() int {
	n := runtime.NumCPU() * 2
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// fetchTimeout bounds a single candidate-URL request; not user-visible
// in any tested surface (spec.md §5), so this is an implementation
// default.
const fetchTimeout = 30 * time.Second

// Run updates every repo in cfg.Repos. force selects -uu semantics
// (always refetch and rewrite); soft (-u) is the default. It returns
// one Outcome per repo in configured order and whether every repo
// succeeded (either up-to-date or rewritten) — the caller's exit-code
// signal.
func Run(ctx context.Context, cfg pacmanconf.RuntimeConfig, force bool, logger *slog.Logger) ([]Outcome, bool, error) {
	logger = logging.Default(logger).With("component", "update")

	if err := cfg.CacheDir.EnsureExists(); err != nil {
		return nil, false, fmt.Errorf("update: %w", err)
	}

	client := &http.Client{Timeout: fetchTimeout}

	outcomes := make([]Outcome, len(cfg.Repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers())

	for i, repo := range cfg.Repos {
		g.Go(func() error {
			// A repo-level failure is recorded in Outcome, not returned
			// here: per spec.md §4.4, "a failure in one repo does not
			// abort others", so this goroutine always reports nil to
			// errgroup. Only ctx cancellation (caller's SIGINT/SIGTERM
			// handling) should stop outstanding fetches.
			outcomes[i] = updateRepo(gctx, client, cfg, repo, force, logger)
			return nil
		})
	}
	_ = g.Wait()

	allOK := true
	for _, o := range outcomes {
		if !o.Success() {
			allOK = false
		}
	}

	// A cancelled context (SIGINT/SIGTERM during update, wired by the
	// caller) means fetches were aborted mid-flight; running tidy here
	// could delete chunks for a repo whose rewrite never finished
	// cleanly, so skip it and let the next update reconcile instead.
	if ctx.Err() != nil {
		return outcomes, allOK, ctx.Err()
	}

	if err := store.Tidy(cfg.CacheDir, cfg.RepoNames(), logger); err != nil {
		logger.Warn("tidy skipped", "error", err)
	}

	return outcomes, allOK, nil
}

func updateRepo(ctx context.Context, client *http.Client, cfg pacmanconf.RuntimeConfig, repo pacmanconf.Repo, force bool, logger *slog.Logger) Outcome {
	logger = logger.With("repo", repo.Name)

	var (
		refMtime int64
		hasRef   bool
	)
	if !force {
		refMtime, hasRef = store.ReferenceMtime(cfg.CacheDir, repo.Name)
	}

	urls := candidateURLs(repo, cfg.Architectures)
	if len(urls) == 0 {
		return Outcome{Repo: repo.Name, Err: fmt.Errorf("update: %s: no mirror servers configured", repo.Name)}
	}

	var lastErr error
	for _, url := range urls {
		body, lastModified, notModified, err := httpFetch(ctx, client, url, refMtime, hasRef)
		if err != nil {
			logger.Warn("fetch failed, trying next mirror", "url", url, "error", err)
			lastErr = err
			continue
		}
		if notModified {
			if err := store.WriteVersion(cfg.CacheDir); err != nil {
				return Outcome{Repo: repo.Name, Err: fmt.Errorf("update: %s: write version marker: %w", repo.Name, err)}
			}
			logger.Debug("repo up to date", "url", url)
			return Outcome{Repo: repo.Name, UpToDate: true}
		}

		count, werr := decodeAndReplace(cfg, repo.Name, body, lastModified)
		if werr != nil {
			logger.Warn("decode/write failed, trying next mirror", "url", url, "error", werr)
			lastErr = werr
			continue
		}

		if err := store.WriteVersion(cfg.CacheDir); err != nil {
			return Outcome{Repo: repo.Name, Err: fmt.Errorf("update: %s: write version marker: %w", repo.Name, err)}
		}

		logger.Info("repo updated", "url", url, "chunks", count)
		return Outcome{Repo: repo.Name}
	}

	return Outcome{Repo: repo.Name, Err: fmt.Errorf("update: %s: all mirrors exhausted: %w", repo.Name, lastErr)}
}

// decodeAndReplace streams body through the archive decoder and writes
// the result as repo's new chunk set, closing body unconditionally.
func decodeAndReplace(cfg pacmanconf.RuntimeConfig, repo string, body io.ReadCloser, lastModified time.Time) (int, error) {
	defer body.Close()

	dec, err := archive.NewDecoder(body)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	return store.ReplaceRepo(cfg.CacheDir, repo, dec, cfg.RepoChunkBytes, lastModified)
}

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/falconindy/pkgfile/internal/cachedir"
	"github.com/falconindy/pkgfile/internal/logging"
)

// ErrUnsafeCachedir's text is the exact warning substring spec'd for the
// directory-presence safety guard.
var ErrUnsafeCachedir = errors.New("Directory found in pkgfile cachedir")

// knownEntryPattern matches anything tidy must leave alone: the version
// marker and any "<repo>.files" or "<repo>.files.NNN" chunk, for any
// currently configured repo.
func knownEntryPattern(repos []string) *regexp.Regexp {
	if len(repos) == 0 {
		return regexp.MustCompile(`^\.db_version$`)
	}
	alt := regexp.QuoteMeta(repos[0])
	for _, r := range repos[1:] {
		alt += "|" + regexp.QuoteMeta(r)
	}
	return regexp.MustCompile(`^\.db_version$|^(?:` + alt + `)\.files(?:\.\d+)?$`)
}

// Tidy removes cache-dir entries that don't belong to any configured
// repo's database. If any sub-directory is present under the cache
// dir, tidy performs no deletions at all and returns ErrUnsafeCachedir
// (logged as a warning, not fatal) — the presence of a directory there
// suggests the cache dir was pointed at something else by mistake.
func Tidy(dir cachedir.Dir, repos []string, logger *slog.Logger) error {
	logger = logging.Default(logger).With("component", "store")

	entries, err := os.ReadDir(dir.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: read cache dir for tidy: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			logger.Warn("directory found in pkgfile cachedir, skipping tidy", "name", e.Name())
			return ErrUnsafeCachedir
		}
	}

	known := knownEntryPattern(repos)
	for _, e := range entries {
		name := e.Name()
		if known.MatchString(name) {
			continue
		}
		path := dir.Root() + "/" + name
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove unknown cache entry %s: %w", name, err)
		}
		logger.Debug("removed unknown cache entry", "name", name)
	}
	return nil
}

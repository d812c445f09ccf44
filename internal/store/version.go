package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/falconindy/pkgfile/internal/cachedir"
)

// FormatVersion is the compiled-in on-disk format version. A cache
// directory whose marker doesn't match this exactly is refused on read.
const FormatVersion = 1

// Sentinel errors for the version contract. Their Error() text contains
// the exact substrings callers are expected to surface on stderr.
var (
	ErrDatabaseVersionMissing  = errors.New("Database version file not found")
	ErrDatabaseVersionMismatch = errors.New("Database has incorrect version")
)

// CheckVersion enforces the read-path version contract: the marker must
// exist and parse as exactly FormatVersion.
func CheckVersion(dir cachedir.Dir) error {
	data, err := os.ReadFile(dir.VersionMarkerPath())
	if errors.Is(err, os.ErrNotExist) {
		return ErrDatabaseVersionMissing
	}
	if err != nil {
		return fmt.Errorf("store: read version marker: %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || v != FormatVersion {
		return ErrDatabaseVersionMismatch
	}
	return nil
}

// WriteVersion writes or refreshes the version marker with FormatVersion.
// It's called for every repo an update finds up to date or rewrites, possibly by several repo
// goroutines finishing concurrently, so the temp file name must be
// unique per call rather than a fixed ".tmp" suffix.
func WriteVersion(dir cachedir.Dir) error {
	path := dir.VersionMarkerPath()
	tmp := path + ".tmp-" + uniqueSuffix()
	return atomicReplace(tmp, path, []byte(strconv.Itoa(FormatVersion)), time.Time{})
}

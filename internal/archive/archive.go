// Package archive decodes the upstream repository file-list archive
// (spec.md §4.1): a compressed tar stream whose entries are grouped by
// "<pkgname>-<version>/" directories, each holding a "files" entry (a
// %FILES%-prefixed newline list of paths) and usually a "desc" entry
// (%KEY%/value blocks carrying %NAME%, %VERSION%, %BASE%).
//
// Decode is streaming: Decoder.Next mirrors the shape of
// encoding/json.Decoder.Decode / archive/tar.Reader.Next, returning
// io.EOF once the stream is exhausted.
package archive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/falconindy/pkgfile/internal/pkgdb"
)

// ErrArchiveCorrupt is returned when the archive is truncated or
// structurally invalid mid-stream. Per spec.md §7 this is treated by
// callers as a fetch failure, triggering mirror fallback.
var ErrArchiveCorrupt = errors.New("archive: corrupt upstream archive")

// Decoder streams Package records out of an upstream .files archive.
// It satisfies pkgdb.Iterator.
type Decoder struct {
	tr     tarReader
	src    io.Reader // decompressed stream under tr, drained at end of archive
	closer io.Closer // non-nil when the decompressor owns a resource (zstd)

	pendingDir string
	pending    *partial
}

// partial accumulates the desc/files entries seen for one package
// directory before they're assembled into a pkgdb.Package.
type partial struct {
	name, version, base string
	files               []string
}

// NewDecoder sniffs r's compression (gzip/zstd/xz, falling back to bare
// tar) and returns a Decoder ready to stream packages from it.
func NewDecoder(r io.Reader) (*Decoder, error) {
	decompressed, closer, err := decompress(r)
	if err != nil {
		return nil, fmt.Errorf("archive: %w: %v", ErrArchiveCorrupt, err)
	}
	return &Decoder{tr: newTarReader(decompressed), src: decompressed, closer: closer}, nil
}

// Close releases any resources held by the decompression layer (only
// zstd currently needs this). It does not close the underlying io.Reader
// passed to NewDecoder — that remains the caller's responsibility.
func (d *Decoder) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// Next returns the next package record, or io.EOF once the archive is
// exhausted. It satisfies pkgdb.Iterator.
func (d *Decoder) Next() (*pkgdb.Package, error) {
	for {
		hdr, err := d.tr.Next()
		if err == io.EOF {
			// The tar end marker can arrive before the compressed stream
			// is complete; reading the rest surfaces a cut-off trailer.
			if _, derr := io.Copy(io.Discard, d.src); derr != nil {
				return nil, fmt.Errorf("archive: %w: %v", ErrArchiveCorrupt, derr)
			}
			if d.pending != nil {
				pkg := finish(d.pendingDir, d.pending)
				d.pending = nil
				return pkg, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("archive: %w: %v", ErrArchiveCorrupt, err)
		}

		dir, file := splitEntry(hdr.Name)
		if dir == "" {
			continue
		}

		var finished *pkgdb.Package
		if d.pending != nil && dir != d.pendingDir {
			finished = finish(d.pendingDir, d.pending)
			d.pending = nil
		}
		if d.pending == nil {
			d.pendingDir = dir
			d.pending = &partial{}
		}

		if file != "" {
			data, err := io.ReadAll(d.tr)
			if err != nil {
				return nil, fmt.Errorf("archive: %w: %v", ErrArchiveCorrupt, err)
			}
			switch file {
			case "files":
				parseFiles(data, d.pending)
			case "desc":
				parseDesc(data, d.pending)
			}
		}

		if finished != nil {
			return finished, nil
		}
	}
}

// splitEntry splits a tar entry name like "dhcpcd-8.0.6-1/files" into
// its package directory and the entry within it. A bare directory entry
// ("dhcpcd-8.0.6-1/") yields an empty file component.
func splitEntry(name string) (dir, file string) {
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	parts := strings.SplitN(name, "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", ""
	}
	return parts[0], strings.TrimSuffix(parts[1], "/")
}

func finish(dir string, p *partial) *pkgdb.Package {
	name, version, base := p.name, p.version, p.base
	if name == "" {
		name, version = splitDirFallback(dir)
	}
	return &pkgdb.Package{Name: name, Version: version, Base: base, Files: p.files}
}

// splitDirFallback derives name/version from a "<pkgname>-<pkgver>-<pkgrel>"
// directory name when the archive carries no desc entry. pkgname may
// itself contain hyphens, but pkgver and pkgrel are reliably the last
// two hyphen-delimited segments.
func splitDirFallback(dir string) (name, version string) {
	parts := strings.Split(dir, "-")
	if len(parts) < 3 {
		return dir, ""
	}
	version = parts[len(parts)-2] + "-" + parts[len(parts)-1]
	name = strings.Join(parts[:len(parts)-2], "-")
	return name, version
}

func parseFiles(data []byte, p *partial) {
	lines := strings.Split(string(data), "\n")
	started := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !started {
			if strings.TrimSpace(line) == "%FILES%" {
				started = true
			}
			continue
		}
		if line == "" {
			continue
		}
		p.files = append(p.files, normalizePath(line))
	}
}

// normalizePath ensures every stored file entry is rooted ("/usr/bin/foo",
// not "usr/bin/foo"), matching how this tool's output always prints
// paths. Upstream archives list entries relative to the filesystem root
// without the leading slash.
func normalizePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

func parseDesc(data []byte, p *partial) {
	lines := strings.Split(string(data), "\n")
	key := ""
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") && len(line) > 1 {
			key = strings.Trim(line, "%")
			continue
		}
		if line == "" {
			key = ""
			continue
		}
		switch key {
		case "NAME":
			p.name = line
		case "VERSION":
			p.version = line
		case "BASE":
			p.base = line
		}
	}
}

package pkgdb

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Reader is a read-only, mmap-backed view of one chunk file. All
// accessors return data backed directly by the mapping — no copies are
// made for the hot paths (Name/Version/Base are the exception: they are
// short and copied into a new string on every call, since query
// predicates only ever run against file paths, not package metadata).
//
// Reader.Close must be called to release the mapping and file handle.
type Reader struct {
	file *os.File
	data mmap.MMap
	hdr  header
}

// Open mmaps path read-only and validates its header. The mapping is
// held for the lifetime of the returned Reader; a chunk that is renamed
// over while a Reader has it open continues to serve the old contents
// for the life of the mapping (spec.md §5 / §9).
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("pkgdb: %s: %w", path, ErrChunkTooSmall)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	hdr, err := decodeHeader(data)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, fmt.Errorf("pkgdb: %s: %w", path, err)
	}
	if needed := hdr.IndexOffset + uint64(hdr.PackageCount)*uint64(recordSize); needed > uint64(len(data)) {
		data.Unmap()
		f.Close()
		return nil, fmt.Errorf("pkgdb: %s: %w", path, ErrTruncated)
	}

	return &Reader{file: f, data: data, hdr: hdr}, nil
}

// Close unmaps the chunk and closes its file handle.
func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		if uerr := r.data.Unmap(); uerr != nil {
			err = uerr
		}
		r.data = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}
	return err
}

// Len returns the number of packages in this chunk.
func (r *Reader) Len() int {
	return int(r.hdr.PackageCount)
}

// View is a zero-copy-for-files handle onto one package record within a
// mmap'd chunk. It is only valid for the lifetime of the owning Reader.
type View struct {
	r   *Reader
	rec record
}

// Package returns the view for index i (0-based, within chunk order).
func (r *Reader) Package(i int) View {
	off := int(r.hdr.IndexOffset) + i*recordSize
	return View{r: r, rec: decodeRecord(r.data[off : off+recordSize])}
}

func (v View) str(off, length uint32) string {
	return string(v.r.data[off : off+length])
}

// Name returns the package name.
func (v View) Name() string { return v.str(v.rec.NameOff, v.rec.NameLen) }

// Version returns the package version.
func (v View) Version() string { return v.str(v.rec.VersionOff, v.rec.VersionLen) }

// Base returns the package base, or "" if none was recorded.
func (v View) Base() string {
	if v.rec.BaseLen == 0 {
		return ""
	}
	return v.str(v.rec.BaseOff, v.rec.BaseLen)
}

// FileCount returns the number of file entries in this package.
func (v View) FileCount() int { return int(v.rec.FileCount) }

// ForEachFile invokes fn once per file entry in upstream archive order,
// passing a byte slice backed directly by the mmap (no allocation). fn
// must not retain the slice beyond the call. Iteration stops early if
// fn returns false.
func (v View) ForEachFile(fn func(path []byte) bool) {
	if v.rec.FilesLen == 0 {
		return
	}
	blob := v.r.data[v.rec.FilesOff : v.rec.FilesOff+v.rec.FilesLen]
	for len(blob) > 0 {
		i := bytes.IndexByte(blob, fileSep)
		if i < 0 {
			// Malformed (missing trailing separator); treat the rest as
			// one final entry rather than dropping it silently.
			fn(blob)
			return
		}
		if !fn(blob[:i]) {
			return
		}
		blob = blob[i+1:]
	}
}

// Files returns the file list as a freshly allocated []string. Used by
// list-mode output, which needs to hold onto strings past the scan.
func (v View) Files() []string {
	files := make([]string, 0, v.rec.FileCount)
	v.ForEachFile(func(path []byte) bool {
		files = append(files, string(path))
		return true
	})
	return files
}

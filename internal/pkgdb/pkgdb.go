// Package pkgdb implements the on-disk chunk format described in
// spec.md §3 and §4.1: a packed, mmap-friendly binary layout holding a
// contiguous run of package records for one repository.
//
// A chunk file has three regions, in this order on disk:
//
//	header  | package index | string region
//
// The header records where the index and string regions start so a
// reader can jump directly to either without scanning. The package
// index is an array of fixed-size records, each pointing by
// offset+length into the string region for its name, version, base,
// and concatenated (NUL-delimited) file list. Every offset stored in
// the index is relative to the start of the chunk file, not the start
// of the string region, so the reader never has to add a base more
// than once.
//
// Paths are stored in the exact byte order and content of the upstream
// archive; nothing here re-sorts or deduplicates them.
package pkgdb

import (
	"encoding/binary"
	"errors"
)

// Magic identifies a pkgfile chunk file.
var Magic = [4]byte{'P', 'F', 'C', '1'}

// FormatVersion is the current on-disk chunk format version. This is
// distinct from the cache directory's .db_version marker (see
// internal/store), though both bump together in practice: a reader
// that understands .db_version also understands this chunk layout.
const FormatVersion = 1

// headerSize is the fixed size, in bytes, of the chunk header.
const headerSize = 4 + 4 + 4 + 8 + 8 // magic + version + count + indexOffset + stringsOffset

// recordSize is the fixed size, in bytes, of one package index record.
const recordSize = 9 * 4

var (
	// ErrChunkTooSmall is returned when a chunk file is shorter than a
	// valid header.
	ErrChunkTooSmall = errors.New("pkgdb: chunk shorter than header")
	// ErrBadMagic is returned when a chunk's magic bytes don't match.
	ErrBadMagic = errors.New("pkgdb: bad chunk magic")
	// ErrUnsupportedFormatVersion is returned when a chunk's format
	// version is newer (or otherwise unrecognized) than this build
	// understands.
	ErrUnsupportedFormatVersion = errors.New("pkgdb: unsupported chunk format version")
	// ErrTruncated is returned when a chunk's header claims regions
	// that run past the end of the file.
	ErrTruncated = errors.New("pkgdb: chunk truncated")
)

// header is the fixed-size region at the start of every chunk file.
type header struct {
	Magic         [4]byte
	FormatVersion uint32
	PackageCount  uint32
	IndexOffset   uint64
	StringsOffset uint64
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], h.PackageCount)
	binary.LittleEndian.PutUint64(buf[12:20], h.IndexOffset)
	binary.LittleEndian.PutUint64(buf[20:28], h.StringsOffset)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, ErrChunkTooSmall
	}
	var h header
	copy(h.Magic[:], buf[0:4])
	if h.Magic != Magic {
		return header{}, ErrBadMagic
	}
	h.FormatVersion = binary.LittleEndian.Uint32(buf[4:8])
	if h.FormatVersion != FormatVersion {
		return header{}, ErrUnsupportedFormatVersion
	}
	h.PackageCount = binary.LittleEndian.Uint32(buf[8:12])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[12:20])
	h.StringsOffset = binary.LittleEndian.Uint64(buf[20:28])
	return h, nil
}

// record is one package's fixed-size entry in the package index. All
// offsets are absolute (relative to the start of the chunk file).
type record struct {
	NameOff, NameLen       uint32
	VersionOff, VersionLen uint32
	BaseOff, BaseLen       uint32
	FilesOff, FilesLen     uint32
	FileCount              uint32
}

func (r record) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.NameOff)
	binary.LittleEndian.PutUint32(buf[4:8], r.NameLen)
	binary.LittleEndian.PutUint32(buf[8:12], r.VersionOff)
	binary.LittleEndian.PutUint32(buf[12:16], r.VersionLen)
	binary.LittleEndian.PutUint32(buf[16:20], r.BaseOff)
	binary.LittleEndian.PutUint32(buf[20:24], r.BaseLen)
	binary.LittleEndian.PutUint32(buf[24:28], r.FilesOff)
	binary.LittleEndian.PutUint32(buf[28:32], r.FilesLen)
	binary.LittleEndian.PutUint32(buf[32:36], r.FileCount)
}

func decodeRecord(buf []byte) record {
	return record{
		NameOff:    binary.LittleEndian.Uint32(buf[0:4]),
		NameLen:    binary.LittleEndian.Uint32(buf[4:8]),
		VersionOff: binary.LittleEndian.Uint32(buf[8:12]),
		VersionLen: binary.LittleEndian.Uint32(buf[12:16]),
		BaseOff:    binary.LittleEndian.Uint32(buf[16:20]),
		BaseLen:    binary.LittleEndian.Uint32(buf[20:24]),
		FilesOff:   binary.LittleEndian.Uint32(buf[24:28]),
		FilesLen:   binary.LittleEndian.Uint32(buf[28:32]),
		FileCount:  binary.LittleEndian.Uint32(buf[32:36]),
	}
}

// fileSep delimits file entries within a package's concatenated file
// blob. Upstream archive paths never contain NUL bytes.
const fileSep = 0x00

// Package is an in-memory package record: metadata plus an ordered file
// list, exactly as produced by internal/archive.
type Package struct {
	Name    string
	Version string
	Base    string   // empty if the upstream archive had no %BASE%
	Files   []string // upstream order preserved; directories end in "/"
}

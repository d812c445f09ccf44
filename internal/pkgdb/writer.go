package pkgdb

import (
	"bytes"
	"fmt"
	"io"
)

// Iterator produces Package values in upstream archive order. Next
// returns io.EOF (with a nil *Package) once exhausted. Implementations
// are expected to be streaming — internal/archive's decoder satisfies
// this directly.
type Iterator interface {
	Next() (*Package, error)
}

// WriterFactory opens the writer for chunk number idx (0-based). It is
// called once per chunk, in ascending order; for an empty input it is
// still called once, for chunk 0, which then holds zero packages.
type WriterFactory func(idx int) (io.WriteCloser, error)

// Encode consumes it and writes one or more chunks via newWriter,
// splitting between packages (never within one) whenever the next
// package would push the current chunk past targetBytes. At least one
// chunk is always written, even for an empty input, so callers can rely
// on chunk 000 existing after a successful encode.
//
// The greedy rule: start a new chunk only when the current one already
// holds at least one package and the next package wouldn't fit. A
// single package larger than targetBytes still lands whole in one
// chunk.
func Encode(it Iterator, targetBytes int64, newWriter WriterFactory) (chunkCount int, err error) {
	var (
		current     []Package
		currentSize int64
		idx         int
	)

	flush := func() error {
		w, err := newWriter(idx)
		if err != nil {
			return fmt.Errorf("open chunk %d writer: %w", idx, err)
		}
		if err := writeChunk(w, current); err != nil {
			w.Close()
			return fmt.Errorf("write chunk %d: %w", idx, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close chunk %d: %w", idx, err)
		}
		idx++
		current = nil
		currentSize = 0
		return nil
	}

	for {
		pkg, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return idx, fmt.Errorf("read package: %w", err)
		}

		size := estimateSize(pkg)
		if len(current) > 0 && currentSize+size > targetBytes {
			if err := flush(); err != nil {
				return idx, err
			}
		}
		current = append(current, *pkg)
		currentSize += size
	}

	if len(current) > 0 || idx == 0 {
		if err := flush(); err != nil {
			return idx, err
		}
	}

	return idx, nil
}

// estimateSize returns the approximate number of bytes pkg will add to
// a chunk: its index record plus its string-region footprint.
func estimateSize(pkg *Package) int64 {
	n := int64(recordSize) + int64(len(pkg.Name)) + int64(len(pkg.Version)) + int64(len(pkg.Base))
	for _, f := range pkg.Files {
		n += int64(len(f)) + 1 // + NUL separator
	}
	return n
}

// writeChunk serializes packages into a single chunk and writes it to w.
// packages may be empty (an empty chunk is still a structurally valid,
// zero-package chunk).
func writeChunk(w io.Writer, packages []Package) error {
	count := len(packages)
	indexOffset := uint64(headerSize)
	stringsOffset := indexOffset + uint64(count)*uint64(recordSize)

	var strings bytes.Buffer
	records := make([]record, count)

	for i, pkg := range packages {
		var rec record

		rec.NameOff = uint32(stringsOffset) + uint32(strings.Len())
		strings.WriteString(pkg.Name)
		rec.NameLen = uint32(len(pkg.Name))

		rec.VersionOff = uint32(stringsOffset) + uint32(strings.Len())
		strings.WriteString(pkg.Version)
		rec.VersionLen = uint32(len(pkg.Version))

		if pkg.Base != "" {
			rec.BaseOff = uint32(stringsOffset) + uint32(strings.Len())
			strings.WriteString(pkg.Base)
			rec.BaseLen = uint32(len(pkg.Base))
		}

		filesStart := strings.Len()
		rec.FilesOff = uint32(stringsOffset) + uint32(filesStart)
		for _, f := range pkg.Files {
			strings.WriteString(f)
			strings.WriteByte(fileSep)
		}
		rec.FilesLen = uint32(strings.Len() - filesStart)
		rec.FileCount = uint32(len(pkg.Files))

		records[i] = rec
	}

	h := header{
		Magic:         Magic,
		FormatVersion: FormatVersion,
		PackageCount:  uint32(count),
		IndexOffset:   indexOffset,
		StringsOffset: stringsOffset,
	}

	if _, err := w.Write(h.encode()); err != nil {
		return err
	}

	indexBuf := make([]byte, recordSize)
	for _, rec := range records {
		rec.encode(indexBuf)
		if _, err := w.Write(indexBuf); err != nil {
			return err
		}
	}

	_, err := w.Write(strings.Bytes())
	return err
}

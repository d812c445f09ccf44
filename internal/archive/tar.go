package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// tarReader is the subset of *tar.Header-returning behavior Decoder
// needs; it exists so tests can substitute a fake without building a
// real tar stream.
type tarReader interface {
	Next() (*tar.Header, error)
	Read(p []byte) (int, error)
}

func newTarReader(r io.Reader) tarReader {
	return tar.NewReader(r)
}

// Compression magic numbers. xz starts with the fixed 6-byte stream
// header magic; gzip and zstd have short fixed magics too. See
// spec.md §9: implementations SHOULD sniff rather than trust the URL's
// filename suffix, since the authoritative compression set is whatever
// the mirror network happens to serve.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// decompress sniffs r's compression and returns a reader over the
// decompressed stream. The returned io.Closer is non-nil only when the
// decompressor holds a resource that must be released independently of
// the underlying reader (currently: zstd); callers should call Close
// when non-nil once decoding is finished.
func decompress(r io.Reader) (io.Reader, io.Closer, error) {
	br := bufio.NewReaderSize(r, 4096)
	peek, _ := br.Peek(6)

	switch {
	case bytes.HasPrefix(peek, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		rc := zr.IOReadCloser()
		return rc, rc, nil
	case bytes.HasPrefix(peek, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, nil, nil
	case bytes.HasPrefix(peek, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return xr, nil, nil
	default:
		// No recognized magic: treat the stream as an uncompressed tar
		// rather than failing outright.
		return br, nil, nil
	}
}

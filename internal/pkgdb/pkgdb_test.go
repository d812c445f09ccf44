package pkgdb

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// sliceIterator adapts a []Package to the Iterator interface.
type sliceIterator struct {
	pkgs []Package
	pos  int
}

func (s *sliceIterator) Next() (*Package, error) {
	if s.pos >= len(s.pkgs) {
		return nil, io.EOF
	}
	p := s.pkgs[s.pos]
	s.pos++
	return &p, nil
}

func samplePackages() []Package {
	return []Package{
		{
			Name: "dhcpcd", Version: "8.0.6-1",
			Files: []string{
				"/etc/",
				"/etc/dhcpcd.conf",
				"/usr/bin/",
				"/usr/bin/dhcpcd",
				"/usr/lib/dhcpcd/dhcpcd-hooks/",
				"/usr/lib/dhcpcd/dhcpcd-hooks/01-test",
			},
		},
		{
			Name: "java-openjfx-src", Version: "12.0.2.u1-2", Base: "java-openjfx",
			Files: []string{
				"/usr/",
				"/usr/lib/jvm/java-12-openjfx/javafx-src.zip",
			},
		},
		{
			Name: "mkinitcpio", Version: "34-1",
			Files: []string{"/usr/bin/mkinitcpio"},
		},
	}
}

func writeChunks(t *testing.T, dir string, pkgs []Package, targetBytes int64) int {
	t.Helper()
	count, err := Encode(&sliceIterator{pkgs: pkgs}, targetBytes, func(idx int) (io.WriteCloser, error) {
		return os.Create(filepath.Join(dir, chunkName(idx)))
	})
	require.NoError(t, err)
	return count
}

func chunkName(idx int) string {
	return "test.files." + padIdx(idx)
}

func padIdx(idx int) string {
	digits := "000"
	s := []byte(digits)
	v := idx
	for i := len(s) - 1; i >= 0 && v > 0; i-- {
		s[i] = byte('0' + v%10)
		v /= 10
	}
	return string(s)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pkgs := samplePackages()
	count := writeChunks(t, dir, pkgs, 1<<20)
	require.Equal(t, 1, count)

	r, err := Open(filepath.Join(dir, chunkName(0)))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, len(pkgs), r.Len())
	for i, want := range pkgs {
		got := r.Package(i)
		require.Equal(t, want.Name, got.Name())
		require.Equal(t, want.Version, got.Version())
		require.Equal(t, want.Base, got.Base())
		require.Equal(t, want.Files, got.Files())
	}
}

func TestEncodeEmptyInputStillEmitsOneChunk(t *testing.T) {
	dir := t.TempDir()
	count := writeChunks(t, dir, nil, 1<<20)
	require.Equal(t, 1, count)

	r, err := Open(filepath.Join(dir, chunkName(0)))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 0, r.Len())
}

func TestEncodeSplitsBetweenPackagesNotWithin(t *testing.T) {
	dir := t.TempDir()
	pkgs := samplePackages()

	// A tiny target forces a new chunk before nearly every package, but
	// a single package must never be split across chunks.
	count := writeChunks(t, dir, pkgs, 40)
	require.GreaterOrEqual(t, count, 2)

	var gotNames []string
	for i := range count {
		r, err := Open(filepath.Join(dir, chunkName(i)))
		require.NoError(t, err)
		for j := range r.Len() {
			gotNames = append(gotNames, r.Package(j).Name())
		}
		require.NoError(t, r.Close())
	}

	wantNames := make([]string, len(pkgs))
	for i, p := range pkgs {
		wantNames[i] = p.Name
	}
	require.Equal(t, wantNames, gotNames)
}

func TestOversizedPackageStillFitsInOneChunk(t *testing.T) {
	dir := t.TempDir()
	huge := Package{
		Name:    "huge",
		Version: "1-1",
		Files:   make([]string, 0, 2000),
	}
	for i := range 2000 {
		huge.Files = append(huge.Files, "/usr/share/huge/file"+string(rune('a'+i%26)))
	}

	count := writeChunks(t, dir, []Package{huge}, 100)
	require.Equal(t, 1, count)

	r, err := Open(filepath.Join(dir, chunkName(0)))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, r.Len())
	require.Equal(t, 2000, r.Package(0).FileCount())
}

func TestForEachFileStopsEarly(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, samplePackages(), 1<<20)

	r, err := Open(filepath.Join(dir, chunkName(0)))
	require.NoError(t, err)
	defer r.Close()

	var seen []string
	r.Package(0).ForEachFile(func(path []byte) bool {
		seen = append(seen, string(path))
		return len(seen) < 2
	})
	require.Equal(t, []string{"/etc/", "/etc/dhcpcd.conf"}, seen)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.files.000")
	require.NoError(t, os.WriteFile(path, []byte("not a chunk"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

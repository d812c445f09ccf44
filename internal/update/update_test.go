package update

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/falconindy/pkgfile/internal/cachedir"
	"github.com/falconindy/pkgfile/internal/pacmanconf"
	"github.com/falconindy/pkgfile/internal/store"
)

func buildFixtureArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	files := map[string]string{
		"dhcpcd-8.0.6-1/desc":  "%NAME%\ndhcpcd\n\n%VERSION%\n8.0.6-1\n\n",
		"dhcpcd-8.0.6-1/files": "%FILES%\nusr/bin/dhcpcd\n",
	}
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(body)), Mode: 0o644}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func runtimeConfig(dir cachedir.Dir, servers []string) pacmanconf.RuntimeConfig {
	return pacmanconf.RuntimeConfig{
		Config: pacmanconf.Config{
			Architectures: []string{"x86_64"},
			Repos:         []pacmanconf.Repo{{Name: "testing", Servers: servers}},
		},
		CacheDir:       dir,
		RepoChunkBytes: 1 << 20,
	}
}

func TestRunFreshUpdateWritesChunkAndVersion(t *testing.T) {
	archiveBytes := buildFixtureArchive(t)
	lastMod := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", lastMod.Format(http.TimeFormat))
		w.Write(archiveBytes)
	}))
	defer srv.Close()

	dir := cachedir.New(t.TempDir())
	cfg := runtimeConfig(dir, []string{srv.URL + "/$repo/os/$arch"})

	outcomes, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.True(t, allOK)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Success())
	require.False(t, outcomes[0].UpToDate)

	require.NoError(t, store.CheckVersion(dir))
	paths, err := store.Chunks(dir, "testing")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	info, err := os.Stat(paths[0])
	require.NoError(t, err)
	require.Equal(t, lastMod.Unix(), info.ModTime().Unix())
}

func TestRunSoftUpdateSkipsUpToDateRepo(t *testing.T) {
	var requestCount int
	archiveBytes := buildFixtureArchive(t)
	lastMod := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount == 1 {
			w.Header().Set("Last-Modified", lastMod.Format(http.TimeFormat))
			w.Write(archiveBytes)
			return
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	dir := cachedir.New(t.TempDir())
	cfg := runtimeConfig(dir, []string{srv.URL + "/$repo/os/$arch"})

	_, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.True(t, allOK)

	paths, err := store.Chunks(dir, "testing")
	require.NoError(t, err)
	before, err := os.Stat(paths[0])
	require.NoError(t, err)

	outcomes, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.True(t, allOK)
	require.True(t, outcomes[0].UpToDate)

	after, err := os.Stat(paths[0])
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
	require.Equal(t, 2, requestCount)
}

func TestRunForceUpdateAlwaysRewrites(t *testing.T) {
	archiveBytes := buildFixtureArchive(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", time.Now().Format(http.TimeFormat))
		w.Write(archiveBytes)
	}))
	defer srv.Close()

	dir := cachedir.New(t.TempDir())
	cfg := runtimeConfig(dir, []string{srv.URL + "/$repo/os/$arch"})

	_, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.True(t, allOK)

	outcomes, allOK, err := Run(context.Background(), cfg, true, nil)
	require.NoError(t, err)
	require.True(t, allOK)
	require.False(t, outcomes[0].UpToDate)
}

func TestRunMirrorFailoverOnError(t *testing.T) {
	archiveBytes := buildFixtureArchive(t)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", time.Now().Format(http.TimeFormat))
		w.Write(archiveBytes)
	}))
	defer good.Close()

	dir := cachedir.New(t.TempDir())
	cfg := runtimeConfig(dir, []string{bad.URL + "/$repo/os/$arch", good.URL + "/$repo/os/$arch"})

	outcomes, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.True(t, allOK)
	require.True(t, outcomes[0].Success())
}

func TestRunAllMirrorsFailingIsRepoFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	dir := cachedir.New(t.TempDir())
	cfg := runtimeConfig(dir, []string{bad.URL + "/$repo/os/$arch"})

	outcomes, allOK, err := Run(context.Background(), cfg, false, nil)
	require.NoError(t, err)
	require.False(t, allOK)
	require.Error(t, outcomes[0].Err)
}

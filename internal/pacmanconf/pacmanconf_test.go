package pacmanconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesArchitecturesAndRepos(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pacman.conf", `
[options]
Architecture = x86_64 i686

[testing]
Server = https://mirror.example/$repo/os/$arch

[core]
Server = https://a.example/$repo/os/$arch
Server = https://b.example/$repo/os/$arch
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"x86_64", "i686"}, cfg.Architectures)
	require.Len(t, cfg.Repos, 2)
	require.Equal(t, "testing", cfg.Repos[0].Name)
	require.Equal(t, []string{"https://mirror.example/$repo/os/$arch"}, cfg.Repos[0].Servers)
	require.Equal(t, "core", cfg.Repos[1].Name)
	require.Equal(t, []string{
		"https://a.example/$repo/os/$arch",
		"https://b.example/$repo/os/$arch",
	}, cfg.Repos[1].Servers)
}

func TestLoadExpandsInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mirrorlist", "Server = https://mirror.example/$repo/os/$arch\n")
	path := writeFile(t, dir, "pacman.conf", `
[options]
Architecture = x86_64

[testing]
Include = `+filepath.Join(dir, "mirrorlist")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Repos, 1)
	require.Equal(t, []string{"https://mirror.example/$repo/os/$arch"}, cfg.Repos[0].Servers)
}

func TestLoadRejectsEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pacman.conf", "[options]\nArchitecture = x86_64\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestExpandServerURL(t *testing.T) {
	got := ExpandServerURL("https://mirror.example/$repo/os/$arch", "testing", "x86_64")
	require.Equal(t, "https://mirror.example/testing/os/x86_64", got)
}

func TestResolveAppliesOverrides(t *testing.T) {
	cfg := &Config{Repos: []Repo{{Name: "testing", Servers: []string{"https://x"}}}}

	rc := Resolve(cfg, Overrides{})
	require.Equal(t, int64(DefaultRepoChunkBytes), rc.RepoChunkBytes)

	rc = Resolve(cfg, Overrides{CacheDir: "/tmp/custom", RepoChunkBytes: 5000})
	require.Equal(t, "/tmp/custom", rc.CacheDir.Root())
	require.Equal(t, int64(5000), rc.RepoChunkBytes)
}

package pacmanconf

import "github.com/falconindy/pkgfile/internal/cachedir"

// DefaultRepoChunkBytes is used when --repochunkbytes is not given.
// Chosen large enough that a typical repo fits in a handful of chunks,
// small enough that a single mmap stays a reasonable working set; tests
// that care about chunk counts always pass an explicit value.
const DefaultRepoChunkBytes = 2 << 20

// Overrides carries the CLI flags that sit alongside the parsed config
// file rather than inside it.
type Overrides struct {
	CacheDir       string // --cachedir or -D
	RepoChunkBytes int64  // --repochunkbytes, 0 means "use default"
}

// RuntimeConfig is what the rest of the program consumes: the parsed
// file plus CLI overrides folded in.
type RuntimeConfig struct {
	Config
	CacheDir       cachedir.Dir
	RepoChunkBytes int64
}

// Resolve merges cfg with overrides into a RuntimeConfig.
func Resolve(cfg *Config, o Overrides) RuntimeConfig {
	dir := cachedir.Default()
	if o.CacheDir != "" {
		dir = cachedir.New(o.CacheDir)
	}

	chunkBytes := int64(DefaultRepoChunkBytes)
	if o.RepoChunkBytes > 0 {
		chunkBytes = o.RepoChunkBytes
	}

	return RuntimeConfig{
		Config:         *cfg,
		CacheDir:       dir,
		RepoChunkBytes: chunkBytes,
	}
}

// RepoNames returns the configured repo names in configuration order.
func (c Config) RepoNames() []string {
	names := make([]string, len(c.Repos))
	for i, r := range c.Repos {
		names[i] = r.Name
	}
	return names
}

// Package pacmanconf parses the pacman-style configuration file that
// names this tool's repos and their mirror lists: an INI file with an
// [options] section and one section per repo, following the same
// Include= and $repo/$arch placeholder conventions as pacman.conf
// itself.
package pacmanconf

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Repo is one configured repository: a name and its ordered mirror
// server list. Server order is authoritative — earlier servers are
// preferred during update.
type Repo struct {
	Name    string
	Servers []string
}

// Config is the parsed, resolved contents of the configuration file.
type Config struct {
	Architectures []string
	Repos         []Repo
}

// Load reads and parses the config file at path, expanding any
// Include= directives first (see include.go).
func Load(path string) (*Config, error) {
	raw, err := expandIncludes(path, nil)
	if err != nil {
		return nil, fmt.Errorf("pacmanconf: %w", err)
	}

	f, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, raw)
	if err != nil {
		return nil, fmt.Errorf("pacmanconf: parse %s: %w", path, err)
	}

	cfg := &Config{}
	if opts, err := f.GetSection("options"); err == nil {
		if arch := opts.Key("Architecture").String(); arch != "" {
			cfg.Architectures = strings.Fields(arch)
		}
	}

	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DEFAULT_SECTION || name == "options" {
			continue
		}
		servers := section.Key("Server").ValueWithShadows()
		if len(servers) == 0 {
			continue
		}
		cfg.Repos = append(cfg.Repos, Repo{Name: name, Servers: servers})
	}

	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("pacmanconf: %s: no repos configured", path)
	}

	return cfg, nil
}

// ExpandServerURL substitutes $repo and $arch placeholders in a mirror
// server template, matching pacman.conf's own substitution syntax.
func ExpandServerURL(template, repo, arch string) string {
	r := strings.NewReplacer("$repo", repo, "$arch", arch)
	return r.Replace(template)
}

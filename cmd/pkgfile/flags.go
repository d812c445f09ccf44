package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

const defaultConfigPath = "/etc/pacman.conf"

// cliFlags is the flat flag surface pkgfile exposes: a single binary
// whose behavior branches on flags rather than on a subcommand verb.
type cliFlags struct {
	updateCount int

	list   bool
	search bool

	regex     bool
	glob      bool
	directory bool

	caseInsensitive bool
	binaries        bool
	quiet           bool
	verbose         bool
	raw             bool

	configPath     string
	cacheDir       string
	repoChunkBytes int64

	target string
}

// parseFlags builds the flag set and parses argv (excluding argv[0]).
// A trailing positional argument is the query target; update mode takes
// none.
func parseFlags(argv []string) (*cliFlags, error) {
	fs := pflag.NewFlagSet("pkgfile", pflag.ContinueOnError)
	f := &cliFlags{}

	fs.CountVarP(&f.updateCount, "update", "u", "update the databases (repeat, -uu, to force)")
	fs.BoolVarP(&f.list, "list", "l", false, "list files owned by a package")
	fs.BoolVarP(&f.search, "search", "s", false, "search for packages owning a path (default)")

	fs.BoolVarP(&f.regex, "regex", "r", false, "target is a regular expression")
	fs.BoolVarP(&f.glob, "glob", "g", false, "target is a shell glob pattern")
	fs.BoolVarP(&f.directory, "directory", "d", false, "match directory entries too")

	fs.BoolVarP(&f.caseInsensitive, "ignorecase", "i", false, "match case-insensitively")
	fs.BoolVarP(&f.binaries, "binaries", "b", false, "list: restrict output to standard binary directories")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "list: omit the repo/pkgname prefix")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "search: include version and matched path")
	fs.BoolVarP(&f.raw, "raw", "w", false, "list: disable column alignment")

	fs.StringVar(&f.configPath, "config", defaultConfigPath, "path to pacman-style configuration file")
	fs.StringVarP(&f.cacheDir, "cachedir", "D", "", "override the pkgfile cache directory")
	fs.Int64Var(&f.repoChunkBytes, "repochunkbytes", 0, "target chunk size during update (0 = default)")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	args := fs.Args()
	switch {
	case f.updateCount > 0:
		if len(args) != 0 {
			return nil, fmt.Errorf("update takes no arguments")
		}
	case len(args) == 1:
		f.target = args[0]
	case len(args) == 0:
		return nil, fmt.Errorf("missing search/list target")
	default:
		return nil, fmt.Errorf("too many arguments")
	}

	return f, nil
}

// Command pkgfile answers "which package owns this file" against a
// local cache of pacman repository file lists, and refreshes that
// cache from configured mirrors.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/falconindy/pkgfile/internal/logging"
	"github.com/falconindy/pkgfile/internal/pacmanconf"
)

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelWarn)
	logger := slog.New(filterHandler).With("component", "pkgfile")

	os.Exit(run(os.Args[1:], logger, os.Stdout, os.Stderr))
}

func run(argv []string, logger *slog.Logger, stdout, stderr *os.File) int {
	f, err := parseFlags(argv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "pkgfile:", err)
		return exitUsage
	}

	cfg, err := pacmanconf.Load(f.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "pkgfile: load configuration:", err)
		return exitFailure
	}

	if f.updateCount > 0 {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runUpdate(ctx, f, cfg, logger, stderr)
	}

	return runQuery(f, cfg, stdout, stderr)
}

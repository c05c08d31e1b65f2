// primegen generates the first N primes into a binary store and exports
// stores as newline-delimited text.
//
// Usage:
//
//	primegen generate --count N [--tmp-dir DIR] [--out FILE|s3://B/K|minio://B/K]
//	primegen export   --store PATH [--count N] --out FILE|s3://B/K|minio://B/K
//	primegen verify   --store PATH [--count N]
//
// SIGINT and SIGTERM stop the active worker at the next segment or block
// boundary. The process then waits at most --stop-wait for it to finish.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hupe1980/primegen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case primegen.IsInterrupted(err):
		fmt.Fprintf(os.Stderr, "interrupted: %v\n", err)
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return pflag.ErrHelp
	}

	switch args[0] {
	case "generate":
		return runGenerate(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "verify":
		return runVerify(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return pflag.ErrHelp
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `primegen - segmented prime sieve with an on-disk store.

Usage:
  primegen generate --count N [flags]   generate the first N primes
  primegen export   --store PATH [flags] export a store as text
  primegen verify   --store PATH [flags] check a store prefix

Run "primegen <command> --help" for the flags of a command.
`)
}

// logFlags selects the log handler.
type logFlags struct {
	level  string
	format string
}

func (f *logFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.level, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&f.format, "log-format", "text", "log format (text, json)")
}

func (f *logFlags) logger() (*primegen.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.level)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	switch strings.ToLower(f.format) {
	case "text":
		return primegen.NewTextLogger(level), nil
	case "json":
		return primegen.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("--log-format: unknown format %q", f.format)
	}
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("%s: unexpected argument %q", fs.Name(), rest[0])
	}
	return nil
}

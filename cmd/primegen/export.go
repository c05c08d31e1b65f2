package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/hupe1980/primegen"
)

func runExport(ctx context.Context, args []string) error {
	var (
		storePath string
		count     uint64
		blockSize uint64
		logs      logFlags
		env       envFlags
		out       outputFlags
	)

	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	fs.StringVar(&storePath, "store", "", "store file to export (required)")
	fs.Uint64VarP(&count, "count", "n", 0, "entries to export (default: the whole store)")
	fs.Uint64Var(&blockSize, "block-size", 0, "entries between progress updates (default 10,000,000)")
	logs.register(fs)
	env.register(fs)
	out.register(fs, true)
	if err := parse(fs, args); err != nil {
		return err
	}
	if storePath == "" || out.out == "" {
		return errors.New("export: --store and --out are required")
	}

	if count == 0 {
		r, err := primegen.OpenStore(storePath)
		if err != nil {
			return err
		}
		count = r.Len()
		if err := r.Close(); err != nil {
			return err
		}
	}

	logger, err := logs.logger()
	if err != nil {
		return err
	}
	rt, err := env.open(ctx, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := append(rt.options(),
		primegen.WithObserver(newConsole(os.Stderr)),
		primegen.WithExportBlockSize(blockSize),
	)
	gen := primegen.New(opts...)
	defer gen.Close()

	return exportStore(ctx, gen, storePath, count, out)
}

func runVerify(ctx context.Context, args []string) error {
	var (
		storePath string
		count     uint64
	)

	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	fs.StringVar(&storePath, "store", "", "store file to verify (required)")
	fs.Uint64VarP(&count, "count", "n", 0, "entries to verify (default: the whole store)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if storePath == "" {
		return errors.New("verify: --store is required")
	}

	r, err := primegen.OpenStore(storePath)
	if err != nil {
		return err
	}
	defer r.Close()

	if count == 0 || count > r.Len() {
		count = r.Len()
	}
	if err := r.Verify(ctx, count); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "ok: %s entries are increasing primes (%s)\n",
		humanize.Comma(int64(count)), humanize.IBytes(8*count))
	return nil
}

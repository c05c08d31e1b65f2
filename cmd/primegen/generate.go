package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/primegen"
)

func runGenerate(ctx context.Context, args []string) error {
	var (
		count          uint64
		segmentSize    uint64
		tmpDir         string
		updateInterval time.Duration
		logs           logFlags
		env            envFlags
		out            outputFlags
	)

	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fs.Uint64VarP(&count, "count", "n", 0, "number of primes to generate (required)")
	fs.Uint64Var(&segmentSize, "segment-size", 0, "odd values per sieve window (default: scaled by count)")
	fs.StringVar(&tmpDir, "tmp-dir", os.TempDir(), "directory for the store file")
	fs.DurationVar(&updateInterval, "update-interval", 0, "minimum spacing of progress updates (default: scaled by count)")
	logs.register(fs)
	env.register(fs)
	out.register(fs, false)
	if err := parse(fs, args); err != nil {
		return err
	}

	opts := []primegen.RequestOption{primegen.WithTmpDir(tmpDir)}
	if segmentSize > 0 {
		opts = append(opts, primegen.WithSegmentSize(segmentSize))
	}
	if updateInterval > 0 {
		opts = append(opts, primegen.WithUpdateInterval(updateInterval))
	}
	req, err := primegen.NewRequest(count, opts...)
	if err != nil {
		return err
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

	gen := primegen.New(append(rt.options(), primegen.WithObserver(newConsole(os.Stderr)))...)
	defer gen.Close()

	eg, egCtx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	eg.Go(func() error {
		return rt.serveMetrics(egCtx, done)
	})
	eg.Go(func() error {
		defer close(done)

		if _, err := gen.Start(egCtx, req); err != nil {
			return err
		}
		res, err := await(egCtx, gen, gen.Wait)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "generated %s primes in %s: max %s, average %.4f\nstore: %s\n",
			humanize.Comma(int64(res.Found)), res.Duration.Round(time.Millisecond),
			humanize.Comma(int64(res.MaxPrime)), res.Average, res.StorePath)

		if out.out == "" {
			return nil
		}
		return exportStore(egCtx, gen, res.StorePath, res.Found, out)
	})
	return eg.Wait()
}

// await waits for a worker. When ctx is cancelled it closes gen, which stops
// every worker and waits at most the configured stop wait.
func await[T any](ctx context.Context, gen *primegen.Generator, wait func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := wait(context.Background())
		ch <- outcome{v: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.v, o.err
	case <-ctx.Done():
	}

	if err := gen.Close(); err != nil {
		var zero T
		return zero, err
	}
	o := <-ch
	return o.v, o.err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/hupe1980/primegen"
	"github.com/hupe1980/primegen/codec"
	"github.com/hupe1980/primegen/ledger"
	ddbledger "github.com/hupe1980/primegen/ledger/dynamodb"
	"github.com/hupe1980/primegen/observability"
	"github.com/hupe1980/primegen/resource"
)

// envFlags configure the Generator around a run: resources, ledger, metrics.
type envFlags struct {
	memoryLimit   string
	ioLimit       string
	stopWait      time.Duration
	ledgerPath    string
	ledgerCodec   string
	ddbTable      string
	metricsAddr   string
	maxBoundGrows int
}

func (f *envFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.memoryLimit, "memory-limit", "", "cap on sieve buffer memory, e.g. 512MiB (default: unlimited)")
	fs.StringVar(&f.ioLimit, "io-limit", "", "export throughput cap per second, e.g. 50MiB (default: unlimited)")
	fs.DurationVar(&f.stopWait, "stop-wait", primegen.DefaultStopWait, "how long to wait for a stopped worker")
	fs.StringVar(&f.ledgerPath, "ledger", "", "append run records to this JSON-lines file")
	fs.StringVar(&f.ledgerCodec, "ledger-codec", codec.Default.Name(), "codec of the ledger file (json, go-json)")
	fs.StringVar(&f.ddbTable, "ddb-table", "", "append run records to this DynamoDB table")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
	fs.IntVar(&f.maxBoundGrows, "max-bound-growth", 0, "cap on upper bound growths (default 64)")
}

type runEnv struct {
	logger  *primegen.Logger
	rc      *resource.Controller
	ledger  ledger.Ledger
	reg     *prometheus.Registry
	metrics primegen.MetricsCollector
	flags   *envFlags
}

func (f *envFlags) open(ctx context.Context, logger *primegen.Logger) (*runEnv, error) {
	var cfg resource.Config
	if f.memoryLimit != "" {
		n, err := humanize.ParseBytes(f.memoryLimit)
		if err != nil {
			return nil, fmt.Errorf("--memory-limit: %w", err)
		}
		cfg.MemoryLimitBytes = int64(n)
	}
	if f.ioLimit != "" {
		n, err := humanize.ParseBytes(f.ioLimit)
		if err != nil {
			return nil, fmt.Errorf("--io-limit: %w", err)
		}
		cfg.IOLimitBytesPerSec = int64(n)
	}

	e := &runEnv{
		logger:  logger,
		rc:      resource.NewController(cfg),
		ledger:  ledger.Noop{},
		metrics: primegen.NoopMetricsCollector{},
		flags:   f,
	}

	switch {
	case f.ledgerPath != "" && f.ddbTable != "":
		return nil, errors.New("--ledger and --ddb-table are mutually exclusive")
	case f.ledgerPath != "":
		c, ok := codec.ByName(f.ledgerCodec)
		if !ok {
			return nil, fmt.Errorf("--ledger-codec: unknown codec %q", f.ledgerCodec)
		}
		l, err := ledger.OpenFile(nil, f.ledgerPath, c)
		if err != nil {
			return nil, err
		}
		e.ledger = l
	case f.ddbTable != "":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		e.ledger = ddbledger.New(dynamodb.NewFromConfig(awsCfg), f.ddbTable)
	}

	if f.metricsAddr != "" {
		e.reg = prometheus.NewRegistry()
		e.metrics = observability.NewCollector(e.reg)
	}
	return e, nil
}

func (e *runEnv) options() []primegen.Option {
	return []primegen.Option{
		primegen.WithLogger(e.logger),
		primegen.WithResourceController(e.rc),
		primegen.WithLedger(e.ledger),
		primegen.WithMetricsCollector(e.metrics),
		primegen.WithStopWait(e.flags.stopWait),
		primegen.WithMaxBoundGrowth(e.flags.maxBoundGrows),
	}
}

// serveMetrics serves the registry until done is closed or ctx ends.
func (e *runEnv) serveMetrics(ctx context.Context, done <-chan struct{}) error {
	if e.reg == nil {
		return nil
	}
	srv := &http.Server{
		Addr:              e.flags.metricsAddr,
		Handler:           promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("serving metrics", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-done:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (e *runEnv) close() {
	if err := e.ledger.Close(); err != nil {
		e.logger.Warn("close ledger", "error", err)
	}
}

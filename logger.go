package primegen

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with primegen-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithStore adds a store path field to the logger.
func (l *Logger) WithStore(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", path),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogRunStart logs the start of a generation.
func (l *Logger) LogRunStart(ctx context.Context, req Request) {
	l.InfoContext(ctx, "generation started",
		"count", req.Count,
		"segment_size", req.SegmentSize,
		"update_interval", req.UpdateInterval,
		"store_size", humanize.IBytes(8*req.Count),
	)
}

// LogRun logs the terminal outcome of a generation.
func (l *Logger) LogRun(ctx context.Context, res Result, err error) {
	switch {
	case err == nil:
		l.InfoContext(ctx, "generation completed",
			"found", res.Found,
			"max_prime", res.MaxPrime,
			"average", res.Average,
			"duration", res.Duration.Round(time.Millisecond),
		)
	case IsInterrupted(err):
		l.WarnContext(ctx, "generation interrupted",
			"found", res.Found,
			"duration", res.Duration.Round(time.Millisecond),
		)
	default:
		l.ErrorContext(ctx, "generation failed",
			"found", res.Found,
			"error", err,
		)
	}
}

// LogExport logs the terminal outcome of an export.
func (l *Logger) LogExport(ctx context.Context, res ExportResult, err error) {
	switch {
	case err == nil:
		l.InfoContext(ctx, "export completed",
			"location", res.Location,
			"written", res.Written,
			"duration", res.Duration.Round(time.Millisecond),
		)
	case IsInterrupted(err):
		l.WarnContext(ctx, "export interrupted",
			"location", res.Location,
			"written", res.Written,
		)
	default:
		l.ErrorContext(ctx, "export failed",
			"location", res.Location,
			"written", res.Written,
			"error", err,
		)
	}
}

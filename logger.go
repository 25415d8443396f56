package datacube

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with datacube-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCube tags the logger with a cube's schema.
func (l *Logger) WithCube(dimensions, metrics []string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimensions", dimensions, "metrics", metrics),
	}
}

// LogIngest logs a streaming ingestion.
func (l *Logger) LogIngest(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ingest completed",
			"rows", rows,
		)
	}
}

// LogQuery logs a query or transform producing rows result rows.
func (l *Logger) LogQuery(ctx context.Context, op string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"op", op,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"op", op,
			"rows", rows,
		)
	}
}

// LogSave logs persisting a cube under prefix.
func (l *Logger) LogSave(ctx context.Context, prefix string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cube saved",
			"prefix", prefix,
			"bytes", bytes,
		)
	}
}

// LogLoad logs loading a cube from prefix.
func (l *Logger) LogLoad(ctx context.Context, prefix string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cube loaded",
			"prefix", prefix,
			"rows", rows,
		)
	}
}

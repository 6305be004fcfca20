package vespa

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
)

// Logger wraps slog.Logger with collection-specific context.
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

// WithDocType adds a doc_type field to the logger.
func (l *Logger) WithDocType(docType model.DocType) *Logger {
	return &Logger{
		Logger: l.Logger.With("doc_type", docType.String()),
	}
}

// LogResolve logs the outcome of resolving a collection's imports.
func (l *Logger) LogResolve(ctx context.Context, docType model.DocType, report reference.ResolveReport, err error) {
	if err != nil {
		l.ErrorContext(ctx, "resolve failed",
			"doc_type", docType.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "resolve completed",
		"doc_type", docType.String(),
		"built", report.Built,
		"carried", report.Carried,
		"skipped", len(report.Skipped),
	)
}

// LogTeardown logs the teardown of an attribute manager in a collection.
func (l *Logger) LogTeardown(ctx context.Context, docType, manager model.DocType) {
	l.DebugContext(ctx, "teardown completed",
		"doc_type", docType.String(),
		"manager", manager.String(),
	)
}

// LogMissingParent logs a reference field whose parent collection is unknown.
func (l *Logger) LogMissingParent(ctx context.Context, docType model.DocType, missing reference.MissingParent) {
	l.WarnContext(ctx, "parent collection missing",
		"doc_type", docType.String(),
		"reference_field", missing.ReferenceField,
		"target", missing.Target.String(),
	)
}

// LogReconfigure logs an attribute manager swap.
func (l *Logger) LogReconfigure(ctx context.Context, docType model.DocType, duration time.Duration, rebound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reconfigure failed",
			"doc_type", docType.String(),
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "reconfigure completed",
		"doc_type", docType.String(),
		"duration", duration,
		"rebound_children", rebound,
	)
}

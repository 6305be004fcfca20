package reference

import (
	"log/slog"
	"time"
)

type options struct {
	logger        *slog.Logger
	metrics       MetricsObserver
	clock         func() time.Time
	importedField []ImportedField
}

// Option configures a DocumentDBResolver.
type Option func(*options)

// WithLogger sets the structured logger. Pass nil to disable logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(o *options) {
		if observer != nil {
			o.metrics = observer
		}
	}
}

// WithClock sets the clock used to evaluate the visibility delay.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithImportedFields restricts the imports of the named reference fields to
// the listed fields. Reference fields without an entry import every
// importable parent attribute under its own name.
func WithImportedFields(fields ...ImportedField) Option {
	return func(o *options) {
		o.importedField = append(o.importedField, fields...)
	}
}

func defaultOptions() options {
	return options{
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetricsObserver{},
		clock:   time.Now,
	}
}

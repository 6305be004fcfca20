package vespa

import (
	"log/slog"
	"time"

	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
)

// ResolverFactory creates the reference resolver of a collection.
type ResolverFactory func(docType model.DocType, parents reference.ParentRegistry, fields []reference.ReferenceField, opts ...reference.Option) reference.Resolver

// DefaultResolverFactory creates a reference.DocumentDBResolver.
func DefaultResolverFactory(docType model.DocType, parents reference.ParentRegistry, fields []reference.ReferenceField, opts ...reference.Option) reference.Resolver {
	return reference.NewDocumentDBResolver(docType, parents, fields, opts...)
}

type options struct {
	logger          *Logger
	metrics         MetricsObserver
	visibilityDelay time.Duration
	fields          []reference.ReferenceField
	imported        []reference.ImportedField
	clock           func() time.Time
	resolverFactory ResolverFactory
	warnInterval    time.Duration
}

// Option configures a Registry or a single DocumentDB.
//
// Options passed to NewRegistry apply to every collection it creates; options
// passed to Create are applied after them.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vespa.NewJSONLogger(slog.LevelInfo)
//	registry := vespa.NewRegistry(vespa.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsObserver configures a metrics observer.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsObserver:
//
//	metrics := &vespa.BasicMetricsObserver{}
//	registry := vespa.NewRegistry(vespa.WithMetricsObserver(metrics))
//	// ... reconfigure collections ...
//	stats := metrics.GetStats()
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsObserver{}
		}
		o.metrics = m
	}
}

// WithVisibilityDelay hides parent attribute writes younger than d from
// imported reads.
func WithVisibilityDelay(d time.Duration) Option {
	return func(o *options) {
		o.visibilityDelay = d
	}
}

// WithReferenceFields declares the reference fields of a collection.
func WithReferenceFields(fields ...reference.ReferenceField) Option {
	return func(o *options) {
		o.fields = append(o.fields, fields...)
	}
}

// WithImportedFields declares explicit imports. Reference fields without an
// explicit import import every importable parent attribute.
func WithImportedFields(fields ...reference.ImportedField) Option {
	return func(o *options) {
		o.imported = append(o.imported, fields...)
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

// WithResolverFactory replaces the reference resolver implementation.
func WithResolverFactory(f ResolverFactory) Option {
	return func(o *options) {
		if f != nil {
			o.resolverFactory = f
		}
	}
}

// WithMissingParentWarnInterval sets the minimum interval between warnings
// about missing parent collections of one collection.
func WithMissingParentWarnInterval(d time.Duration) Option {
	return func(o *options) {
		o.warnInterval = d
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:          NoopLogger(),
		metrics:         NoopMetricsObserver{},
		clock:           time.Now,
		resolverFactory: DefaultResolverFactory,
		warnInterval:    time.Minute,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

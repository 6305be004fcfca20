package reference

import (
	"sync/atomic"
	"time"

	"github.com/cnsky2016/vespa/model"
)

// MetricsObserver observes resolver activity.
type MetricsObserver interface {
	// OnResolve is called after every Resolve. report is zero when err != nil.
	OnResolve(child model.DocType, duration time.Duration, report ResolveReport, err error)

	// OnTeardown is called after every Teardown with the number of imports
	// invalidated and gid listeners cancelled.
	OnTeardown(child model.DocType, invalidated, unsubscribed int)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnResolve(model.DocType, time.Duration, ResolveReport, error) {}
func (NoopMetricsObserver) OnTeardown(model.DocType, int, int)                          {}

// BasicMetricsObserver keeps in-memory counters.
// Useful for tests and debugging without external dependencies.
type BasicMetricsObserver struct {
	ResolveCount       atomic.Int64
	ResolveErrors      atomic.Int64
	ResolveTotalNanos  atomic.Int64
	ImportsBuilt       atomic.Int64
	ImportsCarried     atomic.Int64
	MissingParents     atomic.Int64
	SkippedImports     atomic.Int64
	TeardownCount      atomic.Int64
	ImportsInvalidated atomic.Int64
	ListenersCancelled atomic.Int64
}

// OnResolve implements MetricsObserver.
func (b *BasicMetricsObserver) OnResolve(_ model.DocType, duration time.Duration, report ResolveReport, err error) {
	b.ResolveCount.Add(1)
	b.ResolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ResolveErrors.Add(1)
		return
	}
	b.ImportsBuilt.Add(int64(report.Built))
	b.ImportsCarried.Add(int64(report.Carried))
	b.MissingParents.Add(int64(len(report.MissingParents)))
	b.SkippedImports.Add(int64(len(report.Skipped)))
}

// OnTeardown implements MetricsObserver.
func (b *BasicMetricsObserver) OnTeardown(_ model.DocType, invalidated, unsubscribed int) {
	b.TeardownCount.Add(1)
	b.ImportsInvalidated.Add(int64(invalidated))
	b.ListenersCancelled.Add(int64(unsubscribed))
}

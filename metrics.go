package vespa

import (
	"sync/atomic"
	"time"

	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
)

// MetricsObserver observes reconfiguration of document dbs.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see package observability.
type MetricsObserver interface {
	reference.MetricsObserver

	// OnReconfigure is called after each Reconfigure. rebound is the number
	// of dependent child collections that were re-resolved.
	OnReconfigure(docType model.DocType, duration time.Duration, rebound int, err error)

	// OnDrain is called after waiting for readers of a retired epoch.
	// err is non-nil when the wait was abandoned.
	OnDrain(docType model.DocType, wait time.Duration, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
// Use this when metrics collection is not needed.
type NoopMetricsObserver struct {
	reference.NoopMetricsObserver
}

func (NoopMetricsObserver) OnReconfigure(model.DocType, time.Duration, int, error) {}
func (NoopMetricsObserver) OnDrain(model.DocType, time.Duration, error)            {}

// BasicMetricsObserver provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsObserver struct {
	reference.BasicMetricsObserver

	ReconfigureCount      atomic.Int64
	ReconfigureErrors     atomic.Int64
	ReconfigureTotalNanos atomic.Int64
	ChildrenRebound       atomic.Int64
	DrainCount            atomic.Int64
	DrainTimeouts         atomic.Int64
	DrainTotalNanos       atomic.Int64
}

// OnReconfigure implements MetricsObserver.
func (b *BasicMetricsObserver) OnReconfigure(_ model.DocType, duration time.Duration, rebound int, err error) {
	b.ReconfigureCount.Add(1)
	b.ReconfigureTotalNanos.Add(duration.Nanoseconds())
	b.ChildrenRebound.Add(int64(rebound))
	if err != nil {
		b.ReconfigureErrors.Add(1)
	}
}

// OnDrain implements MetricsObserver.
func (b *BasicMetricsObserver) OnDrain(_ model.DocType, wait time.Duration, err error) {
	b.DrainCount.Add(1)
	b.DrainTotalNanos.Add(wait.Nanoseconds())
	if err != nil {
		b.DrainTimeouts.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsObserver) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ResolveCount:       b.ResolveCount.Load(),
		ResolveErrors:      b.ResolveErrors.Load(),
		ImportsBuilt:       b.ImportsBuilt.Load(),
		ImportsCarried:     b.ImportsCarried.Load(),
		ImportsInvalidated: b.ImportsInvalidated.Load(),
		MissingParents:     b.MissingParents.Load(),
		ReconfigureCount:   b.ReconfigureCount.Load(),
		ReconfigureErrors:  b.ReconfigureErrors.Load(),
		ReconfigureAvg:     avg(b.ReconfigureTotalNanos.Load(), b.ReconfigureCount.Load()),
		ChildrenRebound:    b.ChildrenRebound.Load(),
		DrainTimeouts:      b.DrainTimeouts.Load(),
		DrainAvg:           avg(b.DrainTotalNanos.Load(), b.DrainCount.Load()),
	}
}

func avg(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats struct {
	ResolveCount       int64
	ResolveErrors      int64
	ImportsBuilt       int64
	ImportsCarried     int64
	ImportsInvalidated int64
	MissingParents     int64
	ReconfigureCount   int64
	ReconfigureErrors  int64
	ReconfigureAvg     time.Duration
	ChildrenRebound    int64
	DrainTimeouts      int64
	DrainAvg           time.Duration
}

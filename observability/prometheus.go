package observability

import (
	"time"

	"github.com/cnsky2016/vespa"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vespa"

// PrometheusObserver implements vespa.MetricsObserver.
type PrometheusObserver struct {
	opLatency      *prometheus.HistogramVec
	imports        *prometheus.CounterVec
	missingParents *prometheus.CounterVec
	invalidated    *prometheus.CounterVec
	unsubscribed   *prometheus.CounterVec
	rebound        *prometheus.CounterVec
	drainTimeouts  *prometheus.CounterVec
	degraded       *prometheus.GaugeVec
}

var _ vespa.MetricsObserver = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusObserver{
		opLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of resolve, reconfigure and drain operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"doc_type", "op", "status"}),
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_resolved_total",
			Help:      "Imported attributes produced by resolve, by outcome",
		}, []string{"doc_type", "outcome"}),
		missingParents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_parents_total",
			Help:      "Reference fields whose parent collection was unknown at resolve",
		}, []string{"doc_type", "target"}),
		invalidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_invalidated_total",
			Help:      "Imported attributes invalidated by teardown",
		}, []string{"doc_type"}),
		unsubscribed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gid_listeners_cancelled_total",
			Help:      "Gid change listeners cancelled by teardown",
		}, []string{"doc_type"}),
		rebound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "children_rebound_total",
			Help:      "Child collections re-resolved after a parent reconfigure",
		}, []string{"doc_type"}),
		drainTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_timeouts_total",
			Help:      "Reader drains abandoned before completion",
		}, []string{"doc_type"}),
		degraded: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "imports_degraded",
			Help:      "1 if the last resolve of the collection missed a parent",
		}, []string{"doc_type"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnResolve implements reference.MetricsObserver.
func (o *PrometheusObserver) OnResolve(child model.DocType, d time.Duration, report reference.ResolveReport, err error) {
	dt := child.String()
	o.opLatency.WithLabelValues(dt, "resolve", status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	o.imports.WithLabelValues(dt, "built").Add(float64(report.Built))
	o.imports.WithLabelValues(dt, "carried").Add(float64(report.Carried))
	o.imports.WithLabelValues(dt, "skipped").Add(float64(len(report.Skipped)))
	for _, m := range report.MissingParents {
		o.missingParents.WithLabelValues(dt, m.Target.String()).Inc()
	}
	degraded := 0.0
	if report.Degraded() {
		degraded = 1
	}
	o.degraded.WithLabelValues(dt).Set(degraded)
}

// OnTeardown implements reference.MetricsObserver.
func (o *PrometheusObserver) OnTeardown(child model.DocType, invalidated, unsubscribed int) {
	o.invalidated.WithLabelValues(child.String()).Add(float64(invalidated))
	o.unsubscribed.WithLabelValues(child.String()).Add(float64(unsubscribed))
}

// OnReconfigure implements vespa.MetricsObserver.
func (o *PrometheusObserver) OnReconfigure(docType model.DocType, d time.Duration, rebound int, err error) {
	o.opLatency.WithLabelValues(docType.String(), "reconfigure", status(err)).Observe(d.Seconds())
	o.rebound.WithLabelValues(docType.String()).Add(float64(rebound))
}

// OnDrain implements vespa.MetricsObserver.
func (o *PrometheusObserver) OnDrain(docType model.DocType, wait time.Duration, err error) {
	o.opLatency.WithLabelValues(docType.String(), "drain", status(err)).Observe(wait.Seconds())
	if err != nil {
		o.drainTimeouts.WithLabelValues(docType.String()).Inc()
	}
}

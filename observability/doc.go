// Package observability exports reconfiguration and import metrics to
// Prometheus.
//
//	reg := prometheus.NewRegistry()
//	observer := observability.NewPrometheusObserver(reg)
//	registry := vespa.NewRegistry(vespa.WithMetricsObserver(observer))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package observability

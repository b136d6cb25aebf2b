// Package prometheus renders prepwise engine metrics in the Prometheus text
// exposition format.
//
// Counters are named prepwise_*_total; the one histogram is
// prepwise_resolve_latency_seconds. Nothing is registered globally: mount
// [PrometheusExporter.Handler] where you want it.
package prometheus

// Package metrics holds Prometheus instruments that are used across the
// framework.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flint_requests_total",
			Help: "Cumulative number of dispatched requests.",
		})

	FaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flint_dispatch_faults_total",
			Help: "Cumulative number of faults reaching the dispatcher.",
		})

	RetainedContexts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flint_retained_contexts_total",
			Help: "Request contexts retained by debug-mode post-mortem.",
		})

	ActiveContexts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flint_active_contexts",
			Help: "Request contexts currently entered and not yet exited.",
		})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		FaultsTotal,
		RetainedContexts,
		ActiveContexts,
	)
}

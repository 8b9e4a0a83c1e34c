// Package metrics exposes Prometheus instrumentation for backward-reference
// refinement runs: how many intervals are active, how often the interval
// table overflows into direct relaxation, and how long a pass takes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the instruments a refinement pass reports into. A nil
// *Collector is safe to use: every method becomes a no-op, so callers that
// don't want metrics don't need to special-case it.
type Collector struct {
	registry       *prometheus.Registry
	activeInterval prometheus.Gauge
	overflowTotal  prometheus.Counter
	passDuration   prometheus.Histogram
}

// New registers a fresh set of instruments on their own registry, so
// repeated calls (e.g. in tests) never collide with an existing global
// registerer.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		activeInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "backref",
			Name:      "active_intervals",
			Help:      "Number of active cost intervals at the end of the last refinement pass.",
		}),
		overflowTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backref",
			Name:      "interval_overflow_total",
			Help:      "Number of times the interval table hit its cap and degraded to direct relaxation.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "backref",
			Name:      "refinement_duration_seconds",
			Help:      "Wall-clock duration of a single RefineBackwardReferences call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.activeInterval, c.overflowTotal, c.passDuration)
	return c
}

// ObserveActiveIntervals records the interval count at the end of a pass.
func (c *Collector) ObserveActiveIntervals(n int) {
	if c == nil {
		return
	}
	c.activeInterval.Set(float64(n))
}

// IncOverflow records one interval-table overflow event.
func (c *Collector) IncOverflow() {
	if c == nil {
		return
	}
	c.overflowTotal.Inc()
}

// ObserveDuration records the wall-clock duration of one pass, in seconds.
func (c *Collector) ObserveDuration(seconds float64) {
	if c == nil {
		return
	}
	c.passDuration.Observe(seconds)
}

// Handler returns an http.Handler serving this collector's registry in the
// Prometheus exposition format, for wiring into a /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

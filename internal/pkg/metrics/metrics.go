// Package metrics holds the Prometheus collectors of the fulfillment service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

// Metrics groups the collectors updated by the pipeline, the command
// handlers and the stale-claim job. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	intents      *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	staleClaims  prometheus.Gauge
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Operator intents by kind and result.",
		}, []string{"intent", "result"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Duration of side-effect pipeline steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "outcome"}),
		staleClaims: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_claims",
			Help:      "Orders held in separation longer than the configured threshold.",
		}),
	}

	reg.MustRegister(
		m.intents,
		m.stepDuration,
		m.staleClaims,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveIntent counts one intent with result "ok" or the error kind.
func (m *Metrics) ObserveIntent(intent, result string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(intent, result).Inc()
}

// ObserveStep records how long a pipeline step took.
func (m *Metrics) ObserveStep(stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

// SetStaleClaims publishes the latest stale-claim count.
func (m *Metrics) SetStaleClaims(n int) {
	if m == nil {
		return
	}
	m.staleClaims.Set(float64(n))
}

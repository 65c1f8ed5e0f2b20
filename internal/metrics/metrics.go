// Package metrics holds the Prometheus collectors for conversion runs.
// Collectors live on their own registry so tests and embedders never touch
// the global default.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaultport"

// Metrics is the set of conversion counters.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsConverted prometheus.Counter
	DocumentsFailed    prometheus.Counter
	DatabasesConverted prometheus.Counter
	AssetsCopied       prometheus.Counter
	PagesLinked        prometheus.Counter
	ConvertSeconds     prometheus.Histogram
}

// New registers every collector on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DocumentsConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_converted_total",
			Help:      "Documents converted and written to the vault.",
		}),
		DocumentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "Documents skipped because conversion failed.",
		}),
		DatabasesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "databases_converted_total",
			Help:      "Tabular sources projected into row notes and an index.",
		}),
		AssetsCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_copied_total",
			Help:      "Attachments copied into the attachments folder.",
		}),
		PagesLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_linked_total",
			Help:      "Pages that received a databases section.",
		}),
		ConvertSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_convert_seconds",
			Help:      "Time spent converting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	reg.MustRegister(
		m.DocumentsConverted,
		m.DocumentsFailed,
		m.DatabasesConverted,
		m.AssetsCopied,
		m.PagesLinked,
		m.ConvertSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDocument records one document outcome and its duration.
func (m *Metrics) ObserveDocument(start time.Time, err error) {
	if m == nil {
		return
	}
	m.ConvertSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		m.DocumentsFailed.Inc()
		return
	}
	m.DocumentsConverted.Inc()
}

// AddDatabases counts projected databases.
func (m *Metrics) AddDatabases(n int) {
	if m == nil {
		return
	}
	m.DatabasesConverted.Add(float64(n))
}

// AddAssets counts copied attachments.
func (m *Metrics) AddAssets(n int) {
	if m == nil {
		return
	}
	m.AssetsCopied.Add(float64(n))
}

// AddLinked counts linked pages.
func (m *Metrics) AddLinked(n int) {
	if m == nil {
		return
	}
	m.PagesLinked.Add(float64(n))
}

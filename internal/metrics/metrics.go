// Package metrics collects crawl counters and exports them in the
// Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results recorded by ObserveFetch.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultCached   = "cached"
)

// Metrics holds the collectors of a single build. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	fetches  *prometheus.CounterVec
	latency  prometheus.Histogram
	nodes    prometheus.Gauge
	edges    prometheus.Gauge
	finished prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikigraph",
			Name:      "page_fetches_total",
			Help:      "Article page fetches by result.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wikigraph",
			Name:      "page_fetch_duration_seconds",
			Help:      "Time spent retrieving one article page, including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Name:      "graph_nodes",
			Help:      "Nodes in the most recently built graph.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Name:      "graph_edges",
			Help:      "Edges in the most recently built graph.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikigraph",
			Name:      "build_last_completion_timestamp_seconds",
			Help:      "Unix time the last build finished.",
		}),
	}
	m.Registry.MustRegister(m.fetches, m.latency, m.nodes, m.edges, m.finished)
	return m
}

// ObserveFetch records one page retrieval.
func (m *Metrics) ObserveFetch(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	if result != ResultCached {
		m.latency.Observe(took.Seconds())
	}
}

// ObserveGraph records the size of a finished graph.
func (m *Metrics) ObserveGraph(nodes, edges int) {
	if m == nil {
		return
	}
	m.nodes.Set(float64(nodes))
	m.edges.Set(float64(edges))
	m.finished.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/revdeps/pkg/observability"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

const namespace = "revdeps"

// Metrics records index, query, cache and HTTP activity on a private
// registry. It implements the observability hook interfaces.
type Metrics struct {
	registry *prometheus.Registry

	indexBuilds   *prometheus.CounterVec
	indexDuration prometheus.Histogram
	indexPackages prometheus.Gauge
	indexEdges    prometheus.Gauge
	indexSkipped  prometheus.Gauge

	treeQueries  *prometheus.CounterVec
	treeDuration prometheus.Histogram
	treeNodes    prometheus.Histogram
	cycles       prometheus.Counter

	cacheEvents *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry, alongside the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		indexBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "builds_total",
			Help:      "Dependent index builds by source",
		}, []string{"source"}),
		indexDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Time to load manifests and populate dependents",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		indexPackages: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "packages",
			Help:      "Packages in the current index",
		}),
		indexEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "edges",
			Help:      "Dependent edges in the current index",
		}),
		indexSkipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "skipped_manifests",
			Help:      "Manifests skipped during the last build",
		}),

		treeQueries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "queries_total",
			Help:      "Dependent tree queries by outcome",
		}, []string{"status"}),
		treeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "query_duration_seconds",
			Help:      "Time to materialize a dependent tree",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		treeNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "nodes",
			Help:      "Nodes per materialized tree",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "cycles_total",
			Help:      "Branches cut by the cycle guard",
		}),

		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache lookups and writes by event",
		}, []string{"event"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests being served",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Install makes m the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetGraphHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// =============================================================================
// Hook Implementations
// =============================================================================

func (m *Metrics) OnIndexBuilt(_ context.Context, source string, packages, edges, skipped int, d time.Duration) {
	m.indexBuilds.WithLabelValues(source).Inc()
	m.indexDuration.Observe(d.Seconds())
	m.indexPackages.Set(float64(packages))
	m.indexEdges.Set(float64(edges))
	m.indexSkipped.Set(float64(skipped))
}

func (m *Metrics) OnTreeQuery(_ context.Context, _ string, nodes, _ int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.treeQueries.WithLabelValues(status).Inc()
	m.treeDuration.Observe(d.Seconds())
	if err == nil {
		m.treeNodes.Observe(float64(nodes))
	}
}

func (m *Metrics) OnCycleDetected(context.Context, string, []string) {
	m.cycles.Inc()
}

func (m *Metrics) OnCacheHit(context.Context, string)      { m.cacheEvents.WithLabelValues("hit").Inc() }
func (m *Metrics) OnCacheMiss(context.Context, string)     { m.cacheEvents.WithLabelValues("miss").Inc() }
func (m *Metrics) OnCacheSet(context.Context, string, int) { m.cacheEvents.WithLabelValues("set").Inc() }

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.httpInflight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpInflight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.GraphHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	registry     *prometheus.Registry
	renders      *prometheus.CounterVec
	renderTime   *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readiness_page_renders_total",
			Help: "Page and chart renders by page and HTTP status.",
		}, []string{"page", "status"}),
		renderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readiness_page_render_seconds",
			Help:    "Time spent rendering a page, including the dataset load.",
			Buckets: prometheus.DefBuckets,
		}, []string{"page"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readiness_dataset_cache_total",
			Help: "Dataset cache lookups by result (hit or miss).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.renders, m.renderTime, m.cacheLookups)
	return m
}

// ObserveCacheLookup counts a dataset cache hit or miss
func (m *Metrics) ObserveCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records render count, status and duration for page
func (m *Metrics) instrument(page string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.renderTime.WithLabelValues(page).Observe(time.Since(start).Seconds())
		m.renders.WithLabelValues(page, strconv.Itoa(rec.status)).Inc()
	}
}

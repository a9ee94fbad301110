package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// MetricsService owns the Prometheus registry and keeps a handful of atomic
// counters so the health endpoint can answer without scraping itself.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	exportJobs      *prometheus.CounterVec

	stats struct {
		cacheHits    uint64
		cacheMisses  uint64
		requests     uint64
		requestNanos uint64
	}
}

// NewMetricsService registers the application's collectors on a private
// registry, keeping the default registry's Go collectors out of the scrape.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "masterdata_cache_latency_seconds",
			Help:    "Latency of master data cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "masterdata_cache_write_seconds",
			Help:    "Latency of master data cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "masterdata_cache_hits_total",
			Help: "Master data requests answered from redis",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "masterdata_cache_misses_total",
			Help: "Master data requests assembled from the database",
		}),
		exportJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "export_jobs_total",
			Help: "Export jobs by terminal status",
		}, []string{"status", "format"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Current number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one request against the route template.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&m.stats.requests, 1)
	atomic.AddUint64(&m.stats.requestNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation counts a master data cache hit or miss. The hit ratio
// itself is left to PromQL over the two counters.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.stats.cacheHits, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.stats.cacheMisses, 1)
}

// ObserveCacheWrite tracks the duration of cache set operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordExportJob counts a job reaching a terminal status.
func (m *MetricsService) RecordExportJob(status models.ExportJobStatus, format models.ExportFormat) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(status), string(format)).Inc()
}

// Snapshot aggregates the atomic counters for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.stats.cacheHits)
	misses := atomic.LoadUint64(&m.stats.cacheMisses)
	requests := atomic.LoadUint64(&m.stats.requests)
	nanos := atomic.LoadUint64(&m.stats.requestNanos)

	var hitRatio float64
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	var avgMs float64
	if requests > 0 {
		avgMs = float64(nanos) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            hitRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

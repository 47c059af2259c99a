package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

const metricsNamespace = "complyark"

// MetricsService owns the Prometheus registry and keeps a few plain counters
// for the JSON snapshot endpoint. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	casesCreated    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	assignments     prometheus.Counter
	exportJobs      *prometheus.CounterVec
	exportDuration  prometheus.Histogram

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	caseCount            uint64
	transitionCount      uint64
	exportCount          uint64
}

// NewMetricsService registers the service collectors plus Go runtime metrics.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cache_latency_seconds",
			Help:      "Latency for cache lookups",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cache_write_seconds",
			Help:      "Latency for cache writes",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hit_ratio",
			Help:      "Ratio of cache hits to total cache lookups",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		casesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cases_created_total",
			Help:      "Cases submitted through intake",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "case_status_transitions_total",
			Help:      "Status changes by target status",
		}, []string{"status"}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "case_assignments_total",
			Help:      "Case assignments",
		}),
		exportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "export_jobs_total",
			Help:      "Export jobs by final status",
		}, []string{"format", "status"}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "export_duration_seconds",
			Help:      "Time to render and store an export",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheLookups,
		m.casesCreated, m.transitions, m.assignments,
		m.exportJobs, m.exportDuration,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordCaseCreated counts an intake submission.
func (m *MetricsService) RecordCaseCreated(kind models.CaseKind) {
	if m == nil {
		return
	}
	m.casesCreated.WithLabelValues(string(kind)).Inc()
	atomic.AddUint64(&m.caseCount, 1)
}

// RecordTransition counts a status change into statusName.
func (m *MetricsService) RecordTransition(statusName string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(statusName).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordAssignment counts a case assignment.
func (m *MetricsService) RecordAssignment() {
	if m == nil {
		return
	}
	m.assignments.Inc()
}

// RecordExport counts a finished export job.
func (m *MetricsService) RecordExport(format string, status models.ExportStatus, duration time.Duration) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(format, string(status)).Inc()
	if status == models.ExportStatusFinished {
		m.exportDuration.Observe(duration.Seconds())
		atomic.AddUint64(&m.exportCount, 1)
	}
}

// Snapshot returns aggregated counters for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CasesCreated:             atomic.LoadUint64(&m.caseCount),
		StatusTransitions:        atomic.LoadUint64(&m.transitionCount),
		ExportsCompleted:         atomic.LoadUint64(&m.exportCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

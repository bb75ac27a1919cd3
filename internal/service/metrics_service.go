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

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

// runningMean accumulates a count and a total duration without locks.
type runningMean struct {
	count uint64
	total uint64
}

func (r *runningMean) add(d time.Duration) {
	atomic.AddUint64(&r.count, 1)
	atomic.AddUint64(&r.total, uint64(d.Nanoseconds()))
}

func (r *runningMean) load() (count uint64, meanMs float64) {
	count = atomic.LoadUint64(&r.count)
	if count == 0 {
		return 0, 0
	}
	return count, float64(atomic.LoadUint64(&r.total)) / float64(count) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry and mirrors the headline numbers
// in atomics for the JSON health snapshot. All methods accept a nil receiver.
type MetricsService struct {
	handler http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	allocationRuns  prometheus.Counter
	allocationTime  prometheus.Histogram
	allocated       *prometheus.CounterVec
	conflicts       *prometheus.CounterVec

	requests   runningMean
	dbQueries  runningMean
	cacheHits  uint64
	cacheMiss  uint64
	runs       uint64
	assigned   uint64
	unassigned uint64
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsService{
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		}, []string{"method", "path", "status"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "cache_latency_seconds",
			Help: "Latency for cache lookups",
		}),
		cacheWrite: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "cache_write_seconds",
			Help: "Latency for cache writes",
		}),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "db_query_duration_seconds",
			Help: "Duration of database snapshot loads",
		}, []string{"query"}),
		allocationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "allocation_runs_total",
			Help: "Total number of allocation plans computed",
		}),
		allocationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "allocation_run_seconds",
			Help: "Duration of allocation planning including snapshot load",
		}),
		allocated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "allocation_students_total",
			Help: "Students processed by allocation runs by outcome",
		}, []string{"outcome"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_conflicts_total",
			Help: "Bookings rejected by conflict kind",
		}, []string{"kind"}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	return m
}

// Handler serves the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMiss, 1)
	}
	m.cacheHitRatio.Set(m.hitRatio())
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the time spent loading a snapshot from Postgres.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueries.add(duration)
}

// ObserveAllocationRun records the outcome of one allocation plan.
func (m *MetricsService) ObserveAllocationRun(assigned, unassigned int, duration time.Duration) {
	if m == nil {
		return
	}
	m.allocationRuns.Inc()
	m.allocationTime.Observe(duration.Seconds())
	m.allocated.WithLabelValues("assigned").Add(float64(assigned))
	m.allocated.WithLabelValues("unassigned").Add(float64(unassigned))
	atomic.AddUint64(&m.runs, 1)
	atomic.AddUint64(&m.assigned, uint64(assigned))
	atomic.AddUint64(&m.unassigned, uint64(unassigned))
}

// ObserveScheduleConflicts counts the conflict kinds that blocked a booking.
func (m *MetricsService) ObserveScheduleConflicts(conflicts []models.Conflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Kind)).Inc()
	}
}

func (m *MetricsService) hitRatio() float64 {
	hits := atomic.LoadUint64(&m.cacheHits)
	total := hits + atomic.LoadUint64(&m.cacheMiss)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns the numbers reported by the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests, requestMs := m.requests.load()
	queries, queryMs := m.dbQueries.load()

	return models.SystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                atomic.LoadUint64(&m.cacheHits),
		CacheMisses:              atomic.LoadUint64(&m.cacheMiss),
		RequestsTotal:            requests,
		AverageRequestDurationMs: requestMs,
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: queryMs,
		AllocationRuns:           atomic.LoadUint64(&m.runs),
		StudentsAssigned:         atomic.LoadUint64(&m.assigned),
		StudentsUnassigned:       atomic.LoadUint64(&m.unassigned),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

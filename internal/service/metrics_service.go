package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unisched/timetable-api/internal/engine"
)

// MetricsService aggregates Prometheus metrics for the HTTP layer and the
// timetable solver. It owns its registry so tests can run side by side.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	solveTotal      *prometheus.CounterVec
	exactSteps      prometheus.Histogram
	fallbackTotal   prometheus.Counter
	budgetTotal     prometheus.Counter
	splitTotal      prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	solveCount         uint64
	solveDurationTotal uint64
}

// NewMetricsService builds the service with a dedicated registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Duration of timetable solver runs",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
	})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solve_total",
		Help: "Total solver runs by outcome status",
	}, []string{"status"})

	exactSteps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_exact_steps",
		Help:    "Backtracking steps consumed by the exact solver",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	})

	fallbackTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_fallback_total",
		Help: "Solver runs that degraded to the relaxed pass",
	})

	budgetTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_budget_exhausted_total",
		Help: "Exact searches aborted on step or wall-clock budget",
	})

	splitTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_split_courses_total",
		Help: "Courses placed hour-by-hour after slot splitting",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_hits_total",
		Help: "Schedule result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_misses_total",
		Help: "Schedule result cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveTotal, exactSteps, fallbackTotal, budgetTotal, splitTotal, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		exactSteps:      exactSteps,
		fallbackTotal:   fallbackTotal,
		budgetTotal:     budgetTotal,
		splitTotal:      splitTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveSolve records the outcome of one solver run.
func (m *MetricsService) ObserveSolve(status string, stats engine.Stats) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(stats.Elapsed.Seconds())
	m.solveTotal.WithLabelValues(status).Inc()
	m.exactSteps.Observe(float64(stats.ExactSteps))
	if stats.FallbackUsed {
		m.fallbackTotal.Inc()
	}
	if stats.BudgetExhausted {
		m.budgetTotal.Inc()
	}
	if stats.SplitCourses > 0 {
		m.splitTotal.Add(float64(stats.SplitCourses))
	}
	atomic.AddUint64(&m.solveCount, 1)
	atomic.AddUint64(&m.solveDurationTotal, uint64(stats.Elapsed.Nanoseconds()))
}

// RecordCacheLookup records a result cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// SolveSnapshot reports run count and mean duration for health payloads.
func (m *MetricsService) SolveSnapshot() (runs uint64, avg time.Duration) {
	if m == nil {
		return 0, 0
	}
	runs = atomic.LoadUint64(&m.solveCount)
	total := atomic.LoadUint64(&m.solveDurationTotal)
	if runs > 0 {
		avg = time.Duration(total / runs)
	}
	return runs, avg
}

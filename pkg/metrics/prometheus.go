package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide Prometheus metric container.
type Metrics struct {
	// MSA driver metrics.
	MSAIterationsTotal  prometheus.Counter
	MSAIterationSeconds prometheus.Histogram
	MSAFlowDiff         prometheus.Gauge
	MSAConverged        *prometheus.GaugeVec

	// Bush construction metrics, one observation per origin.
	BushLinksTotal prometheus.Histogram
	BushPathsTotal prometheus.Histogram

	// Cache metrics.
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Solve operation metrics (one full CLI invocation, or one /solve request).
	SolveOperationsTotal  *prometheus.CounterVec
	SolveDurationSeconds  prometheus.Histogram
	SolveRequestsInFlight prometheus.Gauge
	HTTPRequestDuration   *prometheus.HistogramVec

	ServiceInfo *prometheus.GaugeVec

	// Requests tracks in-flight daemon-mode requests, keyed by path.
	Requests *RequestTracker
}

var defaultMetrics *Metrics

// InitMetrics registers and returns the metric set under the given
// namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		MSAIterationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "msa_iterations_total",
			Help:      "Total number of MSA iterations executed across all solves",
		}),

		MSAIterationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "msa_iteration_duration_seconds",
			Help:      "Duration of a single MSA iteration (cost update + loading)",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		MSAFlowDiff: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "msa_flow_diff",
			Help:      "Average absolute link flow difference at the last completed MSA iteration",
		}),

		MSAConverged: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "msa_converged",
			Help:      "1 if the last solve converged within tolerance, 0 otherwise",
		}, []string{"reason"}),

		BushLinksTotal: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bush_links_total",
			Help:      "Number of reasonable links per origin bush",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),

		BushPathsTotal: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bush_paths_total",
			Help:      "Number of distinct paths per origin bush, across demand-bearing zones",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000},
		}),

		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of solve-result cache hits",
		}),

		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of solve-result cache misses",
		}),

		SolveOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_operations_total",
			Help:      "Total number of completed assignment solves",
		}, []string{"status"}),

		SolveDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of a complete MSA solve",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 300, 900},
		}),

		SolveRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_requests_in_flight",
			Help:      "Number of /solve requests currently being processed by the daemon",
		}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Wall-clock duration of a daemon-mode HTTP request, by path",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 300, 900},
		}, []string{"path"}),

		ServiceInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "service_info",
			Help:      "Build information",
		}, []string{"version", "environment"}),
	}
	m.Requests = NewRequestTracker(m.SolveRequestsInFlight)

	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// TimeRequest starts a Timer against HTTPRequestDuration for the given path.
func (m *Metrics) TimeRequest(path string) *Timer {
	return NewTimer(m.HTTPRequestDuration, path)
}

// Get returns the process-wide metrics, initializing them with defaults if
// InitMetrics has not yet been called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("sueassign", "")
	}
	return defaultMetrics
}

// RecordIteration records one completed MSA iteration.
func (m *Metrics) RecordIteration(duration time.Duration, flowDiff float64) {
	m.MSAIterationsTotal.Inc()
	m.MSAIterationSeconds.Observe(duration.Seconds())
	m.MSAFlowDiff.Set(flowDiff)
}

// RecordConvergence records the terminal state of one solve.
func (m *Metrics) RecordConvergence(reason string, converged bool) {
	v := 0.0
	if converged {
		v = 1.0
	}
	m.MSAConverged.WithLabelValues(reason).Set(v)
}

// RecordBushBuild records the size of one origin's bush.
func (m *Metrics) RecordBushBuild(numLinks int, numPaths uint64) {
	m.BushLinksTotal.Observe(float64(numLinks))
	m.BushPathsTotal.Observe(float64(numPaths))
}

// RecordCacheResult records a cache lookup outcome.
func (m *Metrics) RecordCacheResult(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

// RecordSolveOperation records one complete solve invocation.
func (m *Metrics) RecordSolveOperation(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.SolveOperationsTotal.WithLabelValues(status).Inc()
	m.SolveDurationSeconds.Observe(duration.Seconds())
}

// SetServiceInfo sets the build-info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a standalone HTTP server exposing /metrics and
// /healthz. Daemon mode does not use it; pkg/server serves both paths on
// its own mux.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	walkforwardRuns       *prometheus.CounterVec
	walkforwardDuration   prometheus.Histogram
	foldsTotal            *prometheus.CounterVec
	foldDuration          prometheus.Histogram
	optimizationRuns      prometheus.Counter
	regimeClassifications *prometheus.CounterVec
	jobsActive            *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.walkforwardRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_walkforward_runs_total",
			Help: "Total number of walk-forward runs",
		},
		[]string{"status"},
	)
	r.walkforwardDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prism_walkforward_duration_seconds",
			Help:    "Walk-forward run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.foldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_folds_total",
			Help: "Total number of folds executed",
		},
		[]string{"outcome"},
	)
	r.foldDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prism_fold_duration_seconds",
			Help:    "Single fold execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.optimizationRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prism_optimization_runs_total",
			Help: "Total number of optimization candidate evaluations",
		},
	)
	r.regimeClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_regime_classifications_total",
			Help: "Total number of regime classifications by result",
		},
		[]string{"regime"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prism_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.walkforwardRuns)
	reg.MustRegister(r.walkforwardDuration)
	reg.MustRegister(r.foldsTotal)
	reg.MustRegister(r.foldDuration)
	reg.MustRegister(r.optimizationRuns)
	reg.MustRegister(r.regimeClassifications)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordWalkForwardRun records a completed walk-forward run.
func (r *Registry) RecordWalkForwardRun(status string, duration float64) {
	r.walkforwardRuns.WithLabelValues(status).Inc()
	r.walkforwardDuration.Observe(duration)
}

// RecordFold records a single fold execution.
func (r *Registry) RecordFold(outcome string, duration float64) {
	r.foldsTotal.WithLabelValues(outcome).Inc()
	r.foldDuration.Observe(duration)
}

// AddOptimizationRuns records completed optimization evaluations.
func (r *Registry) AddOptimizationRuns(n int) {
	r.optimizationRuns.Add(float64(n))
}

// RecordClassification records a regime classification result. Use
// "none" when no regime matched.
func (r *Registry) RecordClassification(regime string) {
	r.regimeClassifications.WithLabelValues(regime).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

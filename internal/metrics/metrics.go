package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeAdded    = "added"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"

	SourceCache = "cache"
	SourceAPI   = "api"

	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds the collectors of the service. Each instance owns its
// registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ImportRows     *prometheus.CounterVec // labels: outcome
	ImportDuration prometheus.Histogram
	QuoteLookups   *prometheus.CounterVec // labels: source, result
	HTTPRequests   *prometheus.CounterVec // labels: method, status
	JobRuns        *prometheus.CounterVec // labels: job, result
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Imported rows by outcome",
		}, []string{"outcome"}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "import_duration_seconds",
			Help:    "Duration of one import batch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QuoteLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_lookups_total",
			Help: "Quote lookups by source and result",
		}, []string{"source", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Handled HTTP requests by method and status",
		}, []string{"method", "status"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Scheduled job runs by job name and result",
		}, []string{"job", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ImportRows,
		m.ImportDuration,
		m.QuoteLookups,
		m.HTTPRequests,
		m.JobRuns,
	)

	return m
}

func (m *Metrics) ObserveImport(started time.Time, added, skipped, rejected, errs int) {
	m.ImportDuration.Observe(time.Since(started).Seconds())
	m.ImportRows.WithLabelValues(OutcomeAdded).Add(float64(added))
	m.ImportRows.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
	m.ImportRows.WithLabelValues(OutcomeRejected).Add(float64(rejected))
	m.ImportRows.WithLabelValues(OutcomeError).Add(float64(errs))
}

func (m *Metrics) QuoteLookup(source, result string) {
	m.QuoteLookups.WithLabelValues(source, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

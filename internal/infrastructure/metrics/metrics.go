package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	ExpensesRecorded prometheus.Counter
	ExpensesRejected *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ExpensesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "expensetracker_expenses_recorded_total",
			Help: "Total number of expenses recorded",
		}),
		ExpensesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensetracker_expenses_rejected_total",
				Help: "Total number of rejected expense submissions by reason",
			},
			[]string{"reason"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensetracker_cache_lookups_total",
				Help: "Date query cache lookups by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensetracker_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "expensetracker_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "expensetracker_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "expensetracker_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// ExpenseRecorded counts a stored expense.
func (m *Metrics) ExpenseRecorded() {
	m.ExpensesRecorded.Inc()
}

// ExpenseRejected counts a rejected submission.
func (m *Metrics) ExpenseRejected(reason string) {
	m.ExpensesRejected.WithLabelValues(reason).Inc()
}

// CacheLookup counts a date query cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Package metrics exposes Prometheus instruments for the expense flows.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nomadledger"

type Metrics struct {
	registry *prometheus.Registry

	expensesSubmitted *prometheus.CounterVec
	receiptUploads    *prometheus.CounterVec
	uploadDuration    prometheus.Histogram
	reportsGenerated  *prometheus.CounterVec
	reportRows        prometheus.Histogram
	loadFailures      prometheus.Counter
	authEvents        *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	syncedExpenses    *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

// New registers every instrument on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		expensesSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_submitted_total",
			Help:      "Expense submissions by outcome",
		}, []string{"status"}),
		receiptUploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_uploads_total",
			Help:      "Receipt uploads by outcome",
		}, []string{"status"}),
		uploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_upload_duration_seconds",
			Help:      "Receipt upload duration",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		reportsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Report exports by format and outcome",
		}, []string{"format", "status"}),
		reportRows: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_rows",
			Help:      "Rows per exported report",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		loadFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_load_failures_total",
			Help:      "Expense list loads that degraded to an empty list",
		}),
		authEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Sign-in and sign-up attempts by outcome",
		}, []string{"event", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		syncedExpenses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_total",
			Help:      "Expenses mirrored to the spreadsheet by outcome",
		}, []string{"status"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ExpenseSubmitted(status string) {
	if m == nil {
		return
	}
	m.expensesSubmitted.WithLabelValues(status).Inc()
}

func (m *Metrics) ReceiptUpload(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.receiptUploads.WithLabelValues(status).Inc()
	m.uploadDuration.Observe(took.Seconds())
}

func (m *Metrics) ReportGenerated(format, status string, rows int) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(format, status).Inc()
	if status == StatusOK {
		m.reportRows.Observe(float64(rows))
	}
}

func (m *Metrics) ExpenseLoadFailed() {
	if m == nil {
		return
	}
	m.loadFailures.Inc()
}

func (m *Metrics) AuthEvent(event, status string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, status).Inc()
}

func (m *Metrics) HTTPRequest(method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(took.Seconds())
}

func (m *Metrics) ExpenseSynced(status string) {
	if m == nil {
		return
	}
	m.syncedExpenses.WithLabelValues(status).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Outcome labels.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusTimeout  = "timeout"
	StatusDenied   = "denied"
	StatusEmpty    = "empty"
	StatusInvalid  = "invalid"
	StatusSkipped  = "skipped"
	StatusConflict = "conflict"
)

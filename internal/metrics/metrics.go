package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics surface used by services and middleware. The
// Prometheus implementation is swapped for NoopMetrics when metrics are
// disabled.
type Recorder interface {
	// Handshake outcomes, labeled by result (approved, invalid_code,
	// not_found, provider_error, timeout, transport_error, decode_error,
	// already_approved, store_error).
	RecordHandshake(result string)

	// Outbound provider calls, labeled by endpoint (token_exchange,
	// identity_fetch).
	RecordProviderCall(endpoint string, duration time.Duration, success bool)

	// Gauge of pending requests inside the freshness window.
	SetPendingRequestsCount(count int)

	// Database errors from background jobs.
	RecordDatabaseQueryError(operation string)

	// HTTP request metrics, recorded by the gin middleware.
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	IncHTTPInFlight()
	DecHTTPInFlight()
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	HandshakesTotal      *prometheus.CounterVec
	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	PendingRequests      prometheus.Gauge

	DatabaseQueryErrorsTotal *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the Prometheus recorder when enabled, otherwise a noop.
// Registration happens at most once per process.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		HandshakesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_handshakes_total",
				Help: "Total number of authentication handshakes by result",
			},
			[]string{"result"},
		),
		ProviderCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_provider_calls_total",
				Help: "Total number of outbound identity provider calls",
			},
			[]string{"endpoint", "result"},
		),
		ProviderCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_provider_call_duration_seconds",
				Help:    "Duration of outbound identity provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		PendingRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "auth_pending_requests",
				Help: "Current number of pending authentication requests inside the freshness window",
			},
		),
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors by operation",
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),
	}
}

func (m *Metrics) RecordHandshake(result string) {
	m.HandshakesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordProviderCall(endpoint string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.ProviderCallsTotal.WithLabelValues(endpoint, result).Inc()
	m.ProviderCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) SetPendingRequestsCount(count int) {
	m.PendingRequests.Set(float64(count))
}

func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncHTTPInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecHTTPInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

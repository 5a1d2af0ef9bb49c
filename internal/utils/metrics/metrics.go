package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway call outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeDeclined    = "declined"
	OutcomeTransport   = "transport_error"
	OutcomeCircuitOpen = "circuit_open"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Gateway metrics
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec
	GatewayBreakerState *prometheus.GaugeVec

	// Payment lifecycle metrics
	PaymentTransitionsTotal     *prometheus.CounterVec
	PaymentReconciliationsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "payment"
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		GatewayCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "calls_total",
				Help:      "Total number of payment gateway calls",
			},
			[]string{"gateway", "action", "outcome"},
		),
		GatewayCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "Payment gateway call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"gateway", "action"},
		),
		GatewayBreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"gateway"},
		),

		PaymentTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orders",
				Name:      "transitions_total",
				Help:      "Total number of recorded payment attempts by resulting transition",
			},
			[]string{"action", "from", "to"},
		),
		PaymentReconciliationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orders",
				Name:      "reconciliations_total",
				Help:      "Total number of gateway effects that could not be recorded",
			},
			[]string{"action"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGatewayCall records one call to a payment gateway.
func (m *Metrics) RecordGatewayCall(gateway, action, outcome string, duration time.Duration) {
	m.GatewayCallsTotal.WithLabelValues(gateway, action, outcome).Inc()
	m.GatewayCallDuration.WithLabelValues(gateway, action).Observe(duration.Seconds())
}

// SetBreakerState records the circuit breaker state of a gateway.
func (m *Metrics) SetBreakerState(gateway string, state int) {
	m.GatewayBreakerState.WithLabelValues(gateway).Set(float64(state))
}

// RecordTransition records a payment attempt and the status it produced.
func (m *Metrics) RecordTransition(action, from, to string) {
	m.PaymentTransitionsTotal.WithLabelValues(action, from, to).Inc()
}

// RecordReconciliation records an unrecorded gateway effect.
func (m *Metrics) RecordReconciliation(action string) {
	m.PaymentReconciliationsTotal.WithLabelValues(action).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

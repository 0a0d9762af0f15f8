// Package metrics holds the Prometheus collectors for the service. All names
// use the "twofa" namespace.
//
//   - twofa_login_attempts_total{outcome}
//   - twofa_twofactor_operations_total{operation,outcome}
//   - twofa_http_request_duration_seconds{method,route,status}
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

const namespace = "twofa"

// Operation labels for TwoFactorOps.
const (
	OpSetup   = "setup"
	OpConfirm = "confirm"
	OpStatus  = "status"
	OpDisable = "disable"
)

// OutcomeError labels operations that failed with a hard error.
const OutcomeError = "error"

type Metrics struct {
	registry *prometheus.Registry

	// LoginAttempts counts logins by outcome: success | invalid_credentials |
	// otp_required | invalid_otp | error.
	LoginAttempts *prometheus.CounterVec

	// TwoFactorOps counts state machine operations by outcome.
	TwoFactorOps *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		TwoFactorOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "twofactor",
				Name:      "operations_total",
				Help:      "Two-factor lifecycle operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method, route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument records request latency under route. Use the mux pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) Instrument(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.RequestDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

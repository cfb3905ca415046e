// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into the portal's HTTP surface and domain services.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	bookings            *prometheus.CounterVec
	termTransitions     *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	signatureRenders    *prometheus.CounterVec
}

// NewMetrics registers the portal collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests received",
			},
			[]string{"route", "status", "method"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of failed HTTP requests (4xx/5xx)",
			},
			[]string{"route", "status", "method"},
		),
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_booking_writes_total",
				Help: "Appointment slot writes by outcome",
			},
			[]string{"outcome"},
		),
		termTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_term_transitions_total",
				Help: "Term lifecycle events",
			},
			[]string{"transition"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_notifications_total",
				Help: "Notification records written by kind and status",
			},
			[]string{"kind", "status"},
		),
		signatureRenders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_signature_renders_total",
				Help: "Signature images rendered by status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpRequestDuration,
		m.httpErrors,
		m.bookings,
		m.termTransitions,
		m.notifications,
		m.signatureRenders,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// BookingWritten counts one slot write.
func (m *Metrics) BookingWritten(outcome string) {
	m.bookings.WithLabelValues(outcome).Inc()
}

// TermTransition counts a term lifecycle event.
func (m *Metrics) TermTransition(transition string) {
	m.termTransitions.WithLabelValues(transition).Inc()
}

// NotificationWritten counts one notification record.
func (m *Metrics) NotificationWritten(kind string, ok bool) {
	m.notifications.WithLabelValues(kind, status(ok)).Inc()
}

// SignatureRendered counts one compositor run.
func (m *Metrics) SignatureRendered(ok bool) {
	m.signatureRenders.WithLabelValues(status(ok)).Inc()
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

type statusRecorder struct {
	http.ResponseWriter
	StatusCode int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the matched
// route pattern. Unmatched requests share one label.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routeLabel(r)
		code := strconv.Itoa(wrapped.StatusCode)
		m.httpRequests.WithLabelValues(route, code, r.Method).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		if wrapped.StatusCode >= 400 && wrapped.StatusCode < 600 {
			m.httpErrors.WithLabelValues(route, code, r.Method).Inc()
		}
	})
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's operational counters behind a dedicated
// prometheus registry so tests can create isolated instances.
type Registry struct {
	registry *prometheus.Registry

	RequestCount    *prometheus.CounterVec
	RequestDuration prometheus.Histogram

	AppointmentsCreated   prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	ConflictsDetected     prometheus.Counter
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Registry{
		registry: reg,
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_requests_total",
			Help: "Total appointment requests",
		}, []string{"method", "endpoint"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "appointment_request_duration_seconds",
			Help: "Appointment request duration",
		}),
		AppointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Appointments accepted and stored",
		}),
		AppointmentsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_cancelled_total",
			Help: "Appointments soft-cancelled",
		}),
		ConflictsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_conflicts_total",
			Help: "Create/update attempts rejected for overlapping an existing appointment",
		}),
	}
	reg.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.AppointmentsCreated,
		m.AppointmentsCancelled,
		m.ConflictsDetected,
	)
	return m
}

// Handler serves the exposition endpoint.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests per method/endpoint and observes duration.
// Path parameters are collapsed to keep label cardinality bounded.
func (m *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		m.RequestCount.WithLabelValues(r.Method, normalizeEndpoint(r.URL.Path)).Inc()
		m.RequestDuration.Observe(time.Since(start).Seconds())
	})
}

func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/appointments/"):
		return "/api/appointments/{id}"
	case strings.HasPrefix(path, "/api/availability/"):
		return "/api/availability/{doctor_id}"
	default:
		return path
	}
}

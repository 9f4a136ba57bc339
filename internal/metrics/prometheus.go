// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"path"},
)

// HTTP Response status
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_duration",
		Help: "HTTP Requests Duration",
	},
	[]string{"path"},
)

// AppointmentsCreated counts the bookings that were committed.
var AppointmentsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "appointments_created_total",
		Help: "Appointments successfully created.",
	},
)

// BookingConflicts counts the bookings rejected at commit time because the chosen
// interval was no longer free.
var BookingConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Bookings rejected due to an interval conflict.",
	},
)

// RejectedTransitions counts the lifecycle transitions rejected by the state machine.
var RejectedTransitions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "appointment_transitions_rejected_total",
		Help: "Appointment status transitions rejected as invalid.",
	},
)

func init() {
	for _, collector := range []prometheus.Collector{totalRequests, duration, AppointmentsCreated, BookingConflicts, RejectedTransitions} {
		if err := prometheus.Register(collector); err != nil {
			panic(err)
		}
	}
}

// PrometheusMiddleware instruments the given request and register metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(duration.WithLabelValues(r.RequestURI))
		next.ServeHTTP(w, r)
		totalRequests.WithLabelValues(r.RequestURI).Inc()
		timer.ObserveDuration()
	})
}

// Handler returns the HTTP handler that exposes the gathered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

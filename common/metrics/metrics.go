package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "eventsync_http_requests_total", Help: "HTTP requests by route and status class"},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "eventsync_http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	RegistrationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "eventsync_registrations_created_total", Help: "Registrations created"},
	)
	RegistrationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "eventsync_registration_conflicts_total", Help: "Duplicate registration attempts"},
	)
	CheckIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "eventsync_checkins_total", Help: "Check-in scans by outcome"},
		[]string{"outcome"},
	)
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "eventsync_emails_total", Help: "Outgoing emails by kind and result"},
		[]string{"kind", "result"},
	)
	AdminLockouts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "eventsync_admin_lockouts_total", Help: "Administrators blocked after wrong passkeys"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		RegistrationsCreated,
		RegistrationConflicts,
		CheckIns,
		EmailsSent,
		AdminLockouts,
	)
}

// EmailResult labels an email outcome
func EmailResult(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Buckets tuned for user-facing API calls: most complete within a
	// second, the tail is dominated by slow mobile networks.
	APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13}

	// HTTP Metrics (devserver)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: APIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Widget business metrics
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotform_submissions_total",
			Help: "Total number of contact form submissions",
		},
		[]string{"status"}, // success, conflict, rate_limit, validation, network
	)

	SlotFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotform_slot_fetches_total",
			Help: "Total number of appointment slot fetches",
		},
		[]string{"backend", "status"},
	)

	SlotFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slotform_slot_fetch_duration_seconds",
			Help:    "Appointment slot fetch duration in seconds",
			Buckets: APIBuckets,
		},
		[]string{"backend"},
	)

	StaleFetchesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotform_stale_fetches_discarded_total",
			Help: "Slot fetch responses discarded because selection changed while in flight",
		},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotform_booking_conflicts_total",
			Help: "Submissions that lost a booking race",
		},
	)

	SpamRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotform_spam_rejections_total",
			Help: "Submissions rejected by the honeypot field",
		},
	)
)

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

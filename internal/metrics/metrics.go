package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	profileLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_widget",
			Name:      "profile_loads_total",
			Help:      "Count of meeting type loads by status.",
		},
		[]string{"status"},
	)

	upstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_widget",
			Name:      "upstream_calls_total",
			Help:      "Count of provider and backend calls by target and status.",
		},
		[]string{"target", "status"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_widget",
			Name:      "booking_outcomes_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_widget",
			Name:      "http_requests_total",
			Help:      "Count of widget HTTP requests by route.",
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(profileLoads, upstreamCalls, bookingOutcomes, httpRequests)
	})
}

func IncProfileLoad(status string) {
	profileLoads.WithLabelValues(status).Inc()
}

func IncUpstreamCall(target, status string) {
	upstreamCalls.WithLabelValues(target, status).Inc()
}

func IncBookingOutcome(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}

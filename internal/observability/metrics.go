package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesBookedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "rides_booked_total", Help: "Total rides booked and assigned"})
	MatchFailures    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "match_failures_total", Help: "Bookings rejected because no capable driver was available"})
	RidesCompleted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "rides_completed_total", Help: "Rides reaching the completed state"})
	RidesCancelled   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "rides_cancelled_total", Help: "Rides reaching the cancelled state"})
	RatingsTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "ratings_total", Help: "Ratings accepted"})
	ChatMessages     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "access_rides", Name: "chat_messages_total", Help: "Chat messages posted"})
	DriversAvailable = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "access_rides", Name: "drivers_available", Help: "Drivers currently available for matching"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "access_rides", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "access_rides",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

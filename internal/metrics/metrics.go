package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffroom",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "staffroom",
			Name:      "booking_conflict_total",
			Help:      "Count of submissions rejected at commit time due to overlap.",
		},
	)

	selectionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffroom",
			Name:      "selection_rejected_total",
			Help:      "Count of slot selections rejected by validation, by reason.",
		},
		[]string{"reason"},
	)

	daySheetCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffroom",
			Name:      "daysheet_cache_total",
			Help:      "Day sheet cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffroom",
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingConflict, selectionRejected, daySheetCache, httpRequests)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncSelectionRejected(reason string) {
	selectionRejected.WithLabelValues(reason).Inc()
}

func IncDaySheetCache(outcome string) {
	daySheetCache.WithLabelValues(outcome).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

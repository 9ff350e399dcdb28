package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking client.
type BookingMetrics struct {
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	bookingsTotal  *prometheus.CounterVec
	staleDiscarded prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberbook",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total BarberBook API requests",
		}, []string{"operation", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barberbook",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of BarberBook API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberbook",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"outcome"}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barberbook",
			Subsystem: "booking",
			Name:      "stale_availability_discarded_total",
			Help:      "Availability responses discarded by the generation fence",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.apiRequests, m.apiLatency, m.bookingsTotal, m.staleDiscarded)
	return m
}

func (m *BookingMetrics) ObserveRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, status).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

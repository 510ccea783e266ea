package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking flows.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	cancelsTotal      *prometheus.CounterVec
	availabilityTotal *prometheus.CounterVec
	customerTotal     *prometheus.CounterVec
	lockWait          prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pestbook",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		cancelsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pestbook",
			Subsystem: "appointments",
			Name:      "cancellations_total",
			Help:      "Total cancellation attempts by outcome",
		}, []string{"outcome"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pestbook",
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Total availability lookups by outcome",
		}, []string{"outcome"}),
		customerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pestbook",
			Subsystem: "customers",
			Name:      "requests_total",
			Help:      "Total customer directory calls",
		}, []string{"op", "outcome"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pestbook",
			Subsystem: "appointments",
			Name:      "date_lock_wait_seconds",
			Help:      "Time spent waiting for the per-date booking lock",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancelsTotal, m.availabilityTotal, m.customerTotal, m.lockWait)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancel(outcome string) {
	if m == nil {
		return
	}
	m.cancelsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCustomer(op, outcome string) {
	if m == nil {
		return
	}
	m.customerTotal.WithLabelValues(op, outcome).Inc()
}

func (m *BookingMetrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.lockWait.Observe(seconds)
}

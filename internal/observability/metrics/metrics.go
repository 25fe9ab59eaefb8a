package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes.
const (
	OutcomeBooked     = "booked"
	OutcomeSlotTaken  = "slot_taken"
	OutcomeInvalid    = "invalid"
	OutcomeStoreError = "store_error"
)

// SchedulingMetrics exposes counters/histograms for the scheduling engine.
type SchedulingMetrics struct {
	bookingsTotal       *prometheus.CounterVec
	transitionsTotal    *prometheus.CounterVec
	availabilityLatency prometheus.Histogram
	triageTotal         *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "transitions_total",
			Help:      "Appointment status transitions by action and result",
		}, []string{"action", "result"}),
		availabilityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "availability_latency_seconds",
			Help:      "Latency of availability listing",
			Buckets:   prometheus.DefBuckets,
		}),
		triageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "triage",
			Name:      "classifications_total",
			Help:      "Triage classifications by urgency and escalation",
		}, []string{"urgency", "escalated"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.availabilityLatency, m.triageTotal)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transitionsTotal.WithLabelValues(action, result).Inc()
}

func (m *SchedulingMetrics) ObserveAvailabilityLatency(seconds float64) {
	if m == nil {
		return
	}
	m.availabilityLatency.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveTriage(urgency string, escalated bool) {
	if m == nil {
		return
	}
	label := "false"
	if escalated {
		label = "true"
	}
	m.triageTotal.WithLabelValues(urgency, label).Inc()
}

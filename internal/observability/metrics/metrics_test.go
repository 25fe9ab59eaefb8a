package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulingMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveBooking(OutcomeBooked)
	m.ObserveBooking(OutcomeSlotTaken)
	m.ObserveBooking(OutcomeSlotTaken)
	m.ObserveTransition("cancel", nil)
	m.ObserveTransition("complete", errors.New("boom"))
	m.ObserveAvailabilityLatency(0.01)
	m.ObserveTriage("urgent", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues(OutcomeBooked)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues(OutcomeSlotTaken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("complete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.triageTotal.WithLabelValues("urgent", "true")))
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveBooking(OutcomeBooked)
	m.ObserveTransition("cancel", nil)
	m.ObserveAvailabilityLatency(0.1)
	m.ObserveTriage("routine", false)
}

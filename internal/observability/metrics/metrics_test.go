package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
	}
	return total
}

func TestBotMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)

	m.ObserveTurn("greeting", 0.01)
	m.ObserveTurn("confirm", 0.2)
	m.ObserveReservation("confirmed")
	m.ObserveReservation("failed")
	m.ObserveSlotQueryFailure()

	assert.Equal(t, 2.0, gatherCounter(t, reg, "salonbot_dialogue_turns_total"))
	assert.Equal(t, 2.0, gatherCounter(t, reg, "salonbot_calendar_reservations_total"))
	assert.Equal(t, 1.0, gatherCounter(t, reg, "salonbot_calendar_slot_query_failures_total"))

	// Histogram should have recorded both observations.
	families, err := reg.Gather()
	require.NoError(t, err)
	var hist *dto.Histogram
	for _, fam := range families {
		if fam.GetName() == "salonbot_dialogue_turn_latency_seconds" {
			for _, metric := range fam.GetMetric() {
				if h := metric.GetHistogram(); h != nil && hist == nil {
					hist = h
				}
			}
		}
	}
	require.NotNil(t, hist)
	assert.GreaterOrEqual(t, hist.GetSampleCount(), uint64(1))
}

func TestBotMetricsNilSafe(t *testing.T) {
	var m *BotMetrics
	m.ObserveTurn("greeting", 0.01)
	m.ObserveReservation("confirmed")
	m.ObserveSlotQueryFailure()
}

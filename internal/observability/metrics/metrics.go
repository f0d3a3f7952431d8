package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the booking dialogue and calendar.
type BotMetrics struct {
	turnsTotal        *prometheus.CounterVec
	turnLatency       *prometheus.HistogramVec
	reservationsTotal *prometheus.CounterVec
	slotQueryFailures prometheus.Counter
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbot",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total processed conversation turns by matched rule",
		}, []string{"rule"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salonbot",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a single conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"rule"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonbot",
			Subsystem: "calendar",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome",
		}, []string{"status"}),
		slotQueryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salonbot",
			Subsystem: "calendar",
			Name:      "slot_query_failures_total",
			Help:      "Availability queries degraded to an empty result",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.reservationsTotal, m.slotQueryFailures)
	return m
}

func (m *BotMetrics) ObserveTurn(rule string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(rule).Inc()
	m.turnLatency.WithLabelValues(rule).Observe(seconds)
}

func (m *BotMetrics) ObserveReservation(status string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveSlotQueryFailure() {
	if m == nil {
		return
	}
	m.slotQueryFailures.Inc()
}

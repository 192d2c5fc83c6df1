package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is optional everywhere; a nil *Metrics records nothing.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	Events            *prometheus.CounterVec
	Deliveries        prometheus.Counter
	SlowConsumers     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "social_chat",
			Subsystem: "ws",
			Name:      "active_connections",
			Help:      "Number of open websocket connections.",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "social_chat",
			Subsystem: "ws",
			Name:      "inbound_events_total",
			Help:      "Inbound websocket events by event name and outcome.",
		}, []string{"event", "outcome"}),
		Deliveries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "social_chat",
			Subsystem: "ws",
			Name:      "broadcast_deliveries_total",
			Help:      "Frames queued to connections by room broadcasts.",
		}),
		SlowConsumers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "social_chat",
			Subsystem: "ws",
			Name:      "slow_consumers_total",
			Help:      "Connections closed because their send buffer was full.",
		}),
	}
}

func (m *Metrics) connected() {
	if m != nil {
		m.ActiveConnections.Inc()
	}
}

func (m *Metrics) disconnected() {
	if m != nil {
		m.ActiveConnections.Dec()
	}
}

func (m *Metrics) event(name, outcome string) {
	if m != nil {
		m.Events.WithLabelValues(name, outcome).Inc()
	}
}

func (m *Metrics) delivered(n int) {
	if m != nil {
		m.Deliveries.Add(float64(n))
	}
}

func (m *Metrics) slowConsumer() {
	if m != nil {
		m.SlowConsumers.Inc()
	}
}

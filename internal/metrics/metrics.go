// Package metrics exposes the bridge's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ha_host_bridge"

// Metrics holds every collector the bridge updates. A nil *Metrics is never
// passed around; callers check for nil before updating.
type Metrics struct {
	connectionStatus prometheus.Gauge
	reconnects       prometheus.Counter
	subscriptions    prometheus.Gauge
	messagesTotal    *prometheus.CounterVec
	publishTotal     *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	uptimeSeconds    prometheus.Gauge
	dispatchRate     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		connectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connected",
			Help:      "1 when the broker session is connected, 0 otherwise.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_reconnect_attempts_total",
			Help:      "Reconnect attempts made after a lost or failed connection.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Topics currently held in the subscription registry.",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by outcome.",
		}, []string{"status"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Outbound publishes by outcome.",
		}, []string{"status"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Shell commands executed by outcome.",
		}, []string{"status"}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the bridge started.",
		}),
		dispatchRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_rate",
			Help:      "Average dispatched messages per second since start.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.connectionStatus,
			m.reconnects,
			m.subscriptions,
			m.messagesTotal,
			m.publishTotal,
			m.commandsTotal,
			m.uptimeSeconds,
			m.dispatchRate,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Metrics) SetConnectionStatus(connected bool) {
	if connected {
		m.connectionStatus.Set(1)
		return
	}
	m.connectionStatus.Set(0)
}

func (m *Metrics) IncReconnects() {
	m.reconnects.Inc()
}

func (m *Metrics) SetSubscriptions(n int) {
	m.subscriptions.Set(float64(n))
}

// IncMessagesTotal counts an inbound message; status is one of
// "received", "dispatched" or "unhandled".
func (m *Metrics) IncMessagesTotal(status string) {
	m.messagesTotal.WithLabelValues(status).Inc()
}

// IncPublishTotal counts a publish; status is "success", "dropped" or "error".
func (m *Metrics) IncPublishTotal(status string) {
	m.publishTotal.WithLabelValues(status).Inc()
}

// IncCommandsTotal counts a command run; status is "success" or "error".
func (m *Metrics) IncCommandsTotal(status string) {
	m.commandsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetUptime(seconds float64) {
	m.uptimeSeconds.Set(seconds)
}

func (m *Metrics) SetDispatchRate(rate float64) {
	m.dispatchRate.Set(rate)
}

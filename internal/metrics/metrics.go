// Package metrics defines the Prometheus collectors exported by carpool.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for commands.
const (
	OutcomeOK    = "ok"
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Metrics holds the carpool collectors.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	entries         prometheus.Gauge
	bytes           prometheus.Gauge
	prunedTotal     prometheus.Counter
	connections     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "carpool",
				Name:      "commands_total",
				Help:      "The total number of commands by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "carpool",
				Name:      "command_duration_seconds",
				Help:      "Command latencies in seconds, lock wait included",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"op"},
		),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carpool",
			Name:      "cache_entries",
			Help:      "Number of entries currently stored",
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carpool",
			Name:      "cache_bytes",
			Help:      "Approximate bytes held by keys and values",
		}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carpool",
			Name:      "pruned_entries_total",
			Help:      "The total number of entries reclaimed by prune",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carpool",
			Name:      "open_connections",
			Help:      "Number of open client connections",
		}),
	}

	reg.MustRegister(
		m.commandsTotal,
		m.commandDuration,
		m.entries,
		m.bytes,
		m.prunedTotal,
		m.connections,
	)
	return m
}

// ObserveCommand records one executed command.
func (m *Metrics) ObserveCommand(op, outcome string, seconds float64) {
	m.commandsTotal.WithLabelValues(op, outcome).Inc()
	m.commandDuration.WithLabelValues(op).Observe(seconds)
}

// SetUsage publishes the current entry count and byte size.
func (m *Metrics) SetUsage(entries, bytes int) {
	m.entries.Set(float64(entries))
	m.bytes.Set(float64(bytes))
}

// AddPruned counts reclaimed entries.
func (m *Metrics) AddPruned(n int) {
	m.prunedTotal.Add(float64(n))
}

func (m *Metrics) ConnOpened() { m.connections.Inc() }

func (m *Metrics) ConnClosed() { m.connections.Dec() }

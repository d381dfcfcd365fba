package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics records bridge activity. It implements bridge.Observer.
type Metrics struct {
	registry        *prometheus.Registry
	commandsQueued  *prometheus.CounterVec
	flushes         *prometheus.CounterVec
	commandsFlushed *prometheus.CounterVec
	responsesRouted *prometheus.CounterVec
}

// NewMetrics creates the bridge metrics on a private registry, together with
// the standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		commandsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_commands_queued_total",
			Help: "Total number of commands queued for the host",
		}, []string{"service"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_flushes_total",
			Help: "Total number of non-empty deliveries to the host",
		}, []string{"mode"}),
		commandsFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_commands_flushed_total",
			Help: "Total number of commands delivered to the host",
		}, []string{"mode"}),
		responsesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_responses_total",
			Help: "Total number of host responses, by whether a caller was still waiting",
		}, []string{"matched"}),
	}
	registry.MustRegister(m.commandsQueued, m.flushes, m.commandsFlushed, m.responsesRouted)
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CommandQueued counts one queued command.
func (m *Metrics) CommandQueued(service, _ string) {
	m.commandsQueued.WithLabelValues(service).Inc()
}

// Flushed counts one delivery of n commands.
func (m *Metrics) Flushed(mode string, n int) {
	m.flushes.WithLabelValues(mode).Inc()
	m.commandsFlushed.WithLabelValues(mode).Add(float64(n))
}

// Dispatched counts one host response.
func (m *Metrics) Dispatched(matched bool) {
	m.responsesRouted.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

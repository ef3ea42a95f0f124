package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chainsphere/core/events"
)

// EventCounter counts emitted ledger events by type. It plugs into the event
// fan-out, so engines stay unaware of prometheus.
type EventCounter struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// NewEventCounter constructs a counter with its own registry.
func NewEventCounter() *EventCounter {
	registry := prometheus.NewRegistry()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainsphere",
		Name:      "events_total",
		Help:      "Ledger events emitted, by event type.",
	}, []string{"type"})
	registry.MustRegister(vec)
	return &EventCounter{registry: registry, events: vec}
}

// Emit implements the events.Emitter interface.
func (c *EventCounter) Emit(evt events.Event) {
	if c == nil || evt == nil {
		return
	}
	c.events.WithLabelValues(evt.EventType()).Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (c *EventCounter) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

package events

import (
	"log/slog"

	"chainsphere/core/types"
)

// Event represents a structured state change emitted by the engine.
type Event interface {
	EventType() string
}

// Payload is implemented by events that expose their generic representation.
type Payload interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (RPC, indexers,
// metrics). Emission is fire-and-forget: subscribers must not influence the
// outcome of the state transition that produced the event.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Fanout dispatches every event to each wrapped emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// LogEmitter writes every event to a structured logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter constructs an emitter backed by the supplied logger. A nil
// logger falls back to the process default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if payload, ok := evt.(Payload); ok {
		if generic := payload.Event(); generic != nil {
			for key, value := range generic.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	l.logger.Info("ledger event", attrs...)
}

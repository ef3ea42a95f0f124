package types

// Event represents a typed event emitted during state transitions. Attributes
// carry string-rendered values so downstream indexers never depend on the
// engine's internal types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

package event

// Handler reacts to the technical event types it knows and ignores the rest.
// The telemetry worker hands every event to each handler in turn.
type Handler interface {
	Handle(event Event)
}

package workers

import (
	"context"
	"log/slog"
	"morse-lab/contract"
	"morse-lab/domain/event"
	"time"
)

// EventFanout delivers room events to the permanent sinks (logs,
// projections) and to the participants' sinks found in the registry.
//
// Room-wide events go to every member of the room, targeted events
// (notices, state views) to their recipient only. Sinks are looked up by the
// emitting room instance, so events for participants that already left, or
// for a room that closed since, find no sink and are dropped. Delivery to one sink is
// bounded by sinkTimeout so a stuck connection can't hold up the others.
//
// Events are delivered one at a time, in the order the rooms emitted them.
type EventFanout struct {
	log             *slog.Logger
	permanentSinks  []contract.EventSink
	registry        contract.IRegistry
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.Event
	sinkTimeout     time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	permanentSinks []contract.EventSink,
	registry contract.IRegistry,
	domainEvents chan event.DomainEvent,
	telemetryEvents chan event.Event,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:             log,
		permanentSinks:  permanentSinks,
		registry:        registry,
		domainEvents:    domainEvents,
		telemetryEvents: telemetryEvents,
		sinkTimeout:     sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvents:
			w.Fanout(ctx, evt)
			w.track(evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout One delivery per sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.permanentSinks {
		w.deliver(ctx, sink, evt)
	}
	if targeted, ok := evt.(event.Targeted); ok {
		if sink, found := w.registry.GetSink(evt.Instance(), targeted.Recipient()); found {
			w.deliver(ctx, sink, evt)
		} else {
			w.log.Debug("No sink for recipient, event dropped", "room", evt.RoomName(), "to", targeted.Recipient())
		}
		return
	}
	for _, sink := range w.registry.GetSinksForRoom(evt.Instance()) {
		w.deliver(ctx, sink, evt)
	}
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Warn("Sink failed to consume event", "room", evt.RoomName(), "error", err)
	}
}

// track reports transmissions to telemetry, dropping when it's full.
func (w *EventFanout) track(evt event.DomainEvent) {
	sent, ok := evt.(event.Transmitted)
	if !ok || w.telemetryEvents == nil {
		return
	}
	select {
	case w.telemetryEvents <- event.Event{
		Type:      event.TransmissionSentType,
		CreatedAt: time.Now().UTC(),
		Payload:   event.TransmissionSent{Room: sent.Room, Callsign: sent.Callsign, Frames: sent.Frames},
	}:
	default:
		w.log.Debug("Observability telemetry event lost")
	}
}

package gateway

import (
	"context"
	"morse-lab/contract"
	"morse-lab/domain/event"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is the per-connection mailbox the fanout writes into.
// The connection's write loop takes it from there.
type Sink struct {
	Events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Sink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume blocks until the event is buffered or ctx, bounded by the fanout's
// sink timeout, is done.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

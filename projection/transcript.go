// Package projection builds read models from observed events.
// Handles ordering and retention of what it keeps.
// Does not emit events or interact with rooms directly.
package projection

import (
	"context"
	"morse-lab/contract"
	"morse-lab/domain/event"
	"sync"
)

const DefaultTranscriptLimit = 100

var _ contract.TranscriptReader = (*Transcript)(nil)

// Transcript keeps the last transmissions of every live room, oldest first.
// A room's transcript is dropped when the room closes.
type Transcript struct {
	mu    sync.RWMutex
	limit int
	rooms map[string][]event.Transmitted
}

func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &Transcript{limit: limit, rooms: make(map[string][]event.Transmitted)}
}

func (t *Transcript) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.Transmitted:
		t.mu.Lock()
		defer t.mu.Unlock()
		log := append(t.rooms[evt.Room], evt)
		if len(log) > t.limit {
			log = append([]event.Transmitted(nil), log[len(log)-t.limit:]...)
		}
		t.rooms[evt.Room] = log
	case event.RoomClosed:
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.rooms, evt.Room)
	}
	return nil
}

func (t *Transcript) Transmissions(room string) []event.Transmitted {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]event.Transmitted(nil), t.rooms[room]...)
}

package runtime

import (
	"morse-lab/contract"
	"sync"

	"github.com/google/uuid"
)

type Set map[string]struct{}

type sessionKey struct {
	roomID         uuid.UUID
	participantKey string
}

// Registry is the sink directory the fanout delivers through. A participant
// in a room instance maps to the sink of that connection, a room instance to
// its member keys. The same participant may sit in several rooms, one sink
// each. Instances, not names, are the keys: events still in flight for a
// closed room find nobody in the room that replaced it.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[sessionKey]contract.EventSink // room instance/participant -> sink
	RoomMembers map[uuid.UUID]Set                 // room instance -> participants
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[sessionKey]contract.EventSink),
		RoomMembers: make(map[uuid.UUID]Set),
	}
}

// GetSinksForRoom resolves the members of a room instance into their sinks.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) GetSinksForRoom(roomID uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for participantKey := range members {
		if sink, exists := r.Sessions[sessionKey{roomID, participantKey}]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// GetSink returns the sink of one participant of a room instance, for
// targeted events.
func (r *Registry) GetSink(roomID uuid.UUID, participantKey string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.Sessions[sessionKey{roomID, participantKey}]
	return sink, ok
}

// Subscribe registers a participant's sink and adds them to the room.
func (r *Registry) Subscribe(participantKey string, roomID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[sessionKey{roomID, participantKey}] = sink

	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][participantKey] = struct{}{}
}

// Unsubscribe removes a participant and leaves no empty room entry behind.
func (r *Registry) Unsubscribe(participantKey string, roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, sessionKey{roomID, participantKey})

	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, participantKey)
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
}

package runtime

import (
	"morse-lab/runtime/workers"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// RoomRegistry owns the live rooms of the process, by name.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*workers.RoomWorker
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*workers.RoomWorker)}
}

// GetOrCreate returns the live room called name, building one with create
// when there is none. Closed rooms still registered are swept first, so a
// name can be reused as soon as its last member is gone. create runs under
// the lock: nobody can see the room before it is started.
func (r *RoomRegistry) GetOrCreate(name string, create func() *workers.RoomWorker) (*workers.RoomWorker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	if w, ok := r.rooms[name]; ok {
		return w, false
	}
	w := create()
	r.rooms[name] = w
	return w, true
}

func (r *RoomRegistry) Get(name string) (*workers.RoomWorker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.rooms[name]
	if !ok || w.Closed() {
		return nil, false
	}
	return w, true
}

// Release forgets w, unless its name was already taken by a newer room.
func (r *RoomRegistry) Release(w *workers.RoomWorker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.rooms[w.Name()]; ok && current == w {
		delete(r.rooms, w.Name())
	}
}

// All returns the live rooms sorted by name.
func (r *RoomRegistry) All() []*workers.RoomWorker {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := lo.Filter(lo.Values(r.rooms), func(w *workers.RoomWorker, _ int) bool { return !w.Closed() })
	sort.Slice(live, func(i, j int) bool { return live[i].Name() < live[j].Name() })
	return live
}

// Occupancy counts live rooms and their members.
func (r *RoomRegistry) Occupancy() (rooms, members int) {
	for _, w := range r.All() {
		rooms++
		members += len(w.Summary().Members)
	}
	return rooms, members
}

// Queues names the command queue of every live room.
func (r *RoomRegistry) Queues() []workers.NamedChannel {
	return lo.Map(r.All(), func(w *workers.RoomWorker, _ int) workers.NamedChannel {
		return workers.NamedChannel{Name: "room:" + w.Name(), Channel: w.Commands()}
	})
}

func (r *RoomRegistry) sweep() {
	for name, w := range r.rooms {
		if w.Closed() {
			delete(r.rooms, name)
		}
	}
}

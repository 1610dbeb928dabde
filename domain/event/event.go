package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything a room emits about its own state.
//
// Instance is the ID of the room instance that emitted the event. A room
// that closes and is opened again under the same name gets a new one, so
// sessions of the new room never see what the old one left in flight.
type DomainEvent interface {
	RoomName() string
	Instance() uuid.UUID
}

// Targeted events are delivered to a single participant instead of the
// whole room. Recipient is the participant key.
type Targeted interface {
	DomainEvent
	Recipient() string
}

type MemberJoined struct {
	ID       uuid.UUID
	Room     string
	RoomID   uuid.UUID
	Callsign string
	Pending  bool
	At       time.Time
}

func (e MemberJoined) RoomName() string    { return e.Room }
func (e MemberJoined) Instance() uuid.UUID { return e.RoomID }

type MemberLeft struct {
	ID       uuid.UUID
	Room     string
	RoomID   uuid.UUID
	Callsign string
	At       time.Time
}

func (e MemberLeft) RoomName() string    { return e.Room }
func (e MemberLeft) Instance() uuid.UUID { return e.RoomID }

// HostChanged is emitted whenever net control moves. From is empty when the
// room was just created.
type HostChanged struct {
	ID     uuid.UUID
	Room   string
	RoomID uuid.UUID
	From   string
	To     string
	At     time.Time
}

func (e HostChanged) RoomName() string    { return e.Room }
func (e HostChanged) Instance() uuid.UUID { return e.RoomID }

// SpeakingChanged is emitted whenever the floor moves. To is empty when
// nobody holds it anymore.
type SpeakingChanged struct {
	ID     uuid.UUID
	Room   string
	RoomID uuid.UUID
	From   string
	To     string
	At     time.Time
}

func (e SpeakingChanged) RoomName() string    { return e.Room }
func (e SpeakingChanged) Instance() uuid.UUID { return e.RoomID }

// Transmitted records an authorized transmission, as normalized Morse.
type Transmitted struct {
	ID        uuid.UUID `json:"id"`
	Room      string    `json:"room"`
	RoomID    uuid.UUID `json:"-"`
	Callsign  string    `json:"callsign"`
	Morse     string    `json:"morse"`
	WPM       int       `json:"wpm"`
	Frequency float64   `json:"frequency"`
	Frames    int       `json:"frames"`
	At        time.Time `json:"at"`
}

func (e Transmitted) RoomName() string    { return e.Room }
func (e Transmitted) Instance() uuid.UUID { return e.RoomID }

type RoomClosed struct {
	ID     uuid.UUID
	Room   string
	RoomID uuid.UUID
	At     time.Time
}

func (e RoomClosed) RoomName() string    { return e.Room }
func (e RoomClosed) Instance() uuid.UUID { return e.RoomID }

// Notice is a text reply to one participant: command results, rejections,
// echoes.
type Notice struct {
	ID     uuid.UUID
	Room   string
	RoomID uuid.UUID
	To     string
	Text   string
	At     time.Time
}

func (e Notice) RoomName() string    { return e.Room }
func (e Notice) Instance() uuid.UUID { return e.RoomID }
func (e Notice) Recipient() string   { return e.To }

// StateView is the per-participant picture of the room, pushed after every
// change so clients can enable or disable their controls.
type StateView struct {
	ID            uuid.UUID
	Room          string
	RoomID        uuid.UUID
	To            string
	Net           bool
	Callsign      string
	WPM           int
	Host          string
	Speaking      string
	Members       int
	CanTransmit   bool
	CanAssign     bool
	CanRelinquish bool
	At            time.Time
}

func (e StateView) RoomName() string    { return e.Room }
func (e StateView) Instance() uuid.UUID { return e.RoomID }
func (e StateView) Recipient() string   { return e.To }

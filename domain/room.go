package domain

import (
	"fmt"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Member is a snapshot of one participant's membership.
type Member struct {
	Identity Identity
	Callsign string
	// Pending marks a net joiner net control hasn't acknowledged yet.
	Pending bool
}

// Capabilities tells a participant what the room currently lets them do.
// Clients enable their controls from it instead of guessing from roles.
type Capabilities struct {
	Member        bool
	IsHost        bool
	IsSpeaking    bool
	CanTransmit   bool
	CanAssign     bool
	CanRelinquish bool
}

// Room is the membership and floor state machine of one named room.
// It is not safe for concurrent use: a single room worker owns it and
// applies commands one at a time. State changes are recorded in an outbox
// and collected with FlushEvents.
type Room struct {
	// ID tells this instance apart from earlier rooms of the same name.
	ID   uuid.UUID
	Name string
	Net  bool

	keyring   Keyring
	accessKey string    // sealed
	members   []*Member // join order
	host      *Identity
	speaking  *Identity
	outbox    []event.DomainEvent
	now       func() time.Time
}

func NewRoom(name string, net bool) *Room {
	return &Room{ID: uuid.New(), Name: name, Net: net, keyring: PlainKeyring{}, now: time.Now}
}

// WithKeyring replaces the keyring sealing the access key.
func (r *Room) WithKeyring(k Keyring) *Room {
	if k != nil {
		r.keyring = k
	}
	return r
}

// Join adds id to the room. The first joiner creates the room: they become
// host and, in a net, take the floor, and the key they present must equal
// its confirmation. Later joiners must present the room's key verbatim
// when one is set.
func (r *Room) Join(id Identity, key, confirm string) error {
	if r.member(id) != nil {
		return errors.ErrAlreadyMember
	}
	if len(r.members) == 0 {
		if key != confirm {
			return errors.ErrAccessKeyMismatch
		}
		sealed, err := r.seal(key)
		if err != nil {
			return err
		}
		r.accessKey = sealed
		r.members = append(r.members, &Member{Identity: id, Callsign: id.Callsign()})
		r.record(event.MemberJoined{ID: uuid.New(), Room: r.Name, RoomID: r.ID, Callsign: id.Callsign(), At: r.now()})
		r.setHost(&id)
		if r.Net {
			r.setSpeaking(&id)
		}
		return nil
	}
	if r.accessKey != "" && !r.keyring.Match(key, r.accessKey) {
		return errors.ErrWrongAccessKey
	}
	m := &Member{Identity: id, Callsign: id.Callsign(), Pending: r.Net}
	r.members = append(r.members, m)
	r.record(event.MemberJoined{ID: uuid.New(), Room: r.Name, RoomID: r.ID, Callsign: m.Callsign, Pending: m.Pending, At: r.now()})
	return nil
}

// Leave removes id. A departing host hands net control to the earliest
// remaining joiner; a departing speaker hands the floor back to the (possibly
// new) host. It reports whether the room is now empty.
func (r *Room) Leave(id Identity) (bool, error) {
	idx := r.index(id)
	if idx < 0 {
		return r.Empty(), errors.ErrNotMember
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.record(event.MemberLeft{ID: uuid.New(), Room: r.Name, RoomID: r.ID, Callsign: id.Callsign(), At: r.now()})

	if len(r.members) == 0 {
		r.setHost(nil)
		r.setSpeaking(nil)
		r.accessKey = ""
		r.record(event.RoomClosed{ID: uuid.New(), Room: r.Name, RoomID: r.ID, At: r.now()})
		return true, nil
	}
	if r.isHost(id) {
		next := r.members[0].Identity
		r.setHost(&next)
	}
	if r.isSpeaking(id) {
		r.setSpeaking(r.host)
	}
	return false, nil
}

// TransferHost hands net control to the member answering to callsign.
func (r *Room) TransferHost(by Identity, callsign string) error {
	if !r.isHost(by) {
		return errors.ErrNotHost
	}
	to, err := r.lookup(callsign)
	if err != nil {
		return err
	}
	r.setHost(&to.Identity)
	return nil
}

// TransferSpeaking gives the floor to the member answering to callsign.
func (r *Room) TransferSpeaking(by Identity, callsign string) error {
	if !r.Net {
		return errors.ErrNotNet
	}
	if !r.isHost(by) {
		return errors.ErrNotHost
	}
	to, err := r.lookup(callsign)
	if err != nil {
		return err
	}
	to.Pending = false
	r.setSpeaking(&to.Identity)
	return nil
}

// Relinquish hands the floor back to the host ("done").
func (r *Room) Relinquish(by Identity) error {
	if !r.isSpeaking(by) {
		return errors.ErrNotSpeaking
	}
	if r.isHost(by) {
		return errors.ErrHostRelinquish
	}
	r.setSpeaking(r.host)
	return nil
}

// SetAccessKey replaces the key. Only the host may do it, and only while
// nobody else has joined.
func (r *Room) SetAccessKey(by Identity, key, confirm string) error {
	if !r.isHost(by) {
		return errors.ErrNotHost
	}
	if len(r.members) > 1 {
		return errors.ErrAccessKeyLocked
	}
	if key != confirm {
		return errors.ErrAccessKeyMismatch
	}
	sealed, err := r.seal(key)
	if err != nil {
		return err
	}
	r.accessKey = sealed
	return nil
}

func (r *Room) seal(key string) (string, error) {
	if key == "" {
		return "", nil
	}
	sealed, err := r.keyring.Seal(key)
	if err != nil {
		return "", fmt.Errorf("sealing access key: %w", err)
	}
	return sealed, nil
}

// CanTransmit reports whether by is allowed to key: any member of a plain
// room, only the speaker of a net.
func (r *Room) CanTransmit(by Identity) bool {
	if r.member(by) == nil {
		return false
	}
	return !r.Net || r.isSpeaking(by)
}

// Transmit records a transmission of already normalized Morse. It reports
// false, recording nothing, when by may not transmit.
func (r *Room) Transmit(by Identity, morse string, wpm, frames int) bool {
	if !r.CanTransmit(by) {
		return false
	}
	r.record(event.Transmitted{
		ID:        uuid.New(),
		Room:      r.Name,
		RoomID:    r.ID,
		Callsign:  by.Callsign(),
		Morse:     morse,
		WPM:       wpm,
		Frequency: by.Frequency(),
		Frames:    frames,
		At:        r.now(),
	})
	return true
}

// Users returns the member list in join order. When net control asks, every
// pending joiner counts as acknowledged afterwards.
func (r *Room) Users(by Identity) ([]Member, error) {
	if r.member(by) == nil {
		return nil, errors.ErrNotMember
	}
	users := r.Members()
	if r.isHost(by) {
		for _, m := range r.members {
			m.Pending = false
		}
	}
	return users, nil
}

// Capabilities evaluates what id may do in the current state.
func (r *Room) Capabilities(id Identity) Capabilities {
	if r.member(id) == nil {
		return Capabilities{}
	}
	host := r.isHost(id)
	speaking := r.isSpeaking(id)
	return Capabilities{
		Member:        true,
		IsHost:        host,
		IsSpeaking:    speaking,
		CanTransmit:   !r.Net || speaking,
		CanAssign:     r.Net && host,
		CanRelinquish: r.Net && speaking && !host,
	}
}

func (r *Room) Members() []Member {
	return lo.Map(r.members, func(m *Member, _ int) Member { return *m })
}

func (r *Room) Host() (Identity, bool) {
	if r.host == nil {
		return Identity{}, false
	}
	return *r.host, true
}

func (r *Room) Speaking() (Identity, bool) {
	if r.speaking == nil {
		return Identity{}, false
	}
	return *r.speaking, true
}

func (r *Room) HasAccessKey() bool {
	return r.accessKey != ""
}

func (r *Room) Empty() bool {
	return len(r.members) == 0
}

func (r *Room) Size() int {
	return len(r.members)
}

// FlushEvents returns and clears the outbox.
func (r *Room) FlushEvents() []event.DomainEvent {
	events := r.outbox
	r.outbox = nil
	return events
}

func (r *Room) setHost(id *Identity) {
	if sameIdentity(r.host, id) {
		return
	}
	from := callsignOf(r.host)
	r.host = copyIdentity(id)
	r.record(event.HostChanged{ID: uuid.New(), Room: r.Name, RoomID: r.ID, From: from, To: callsignOf(id), At: r.now()})
}

func (r *Room) setSpeaking(id *Identity) {
	if sameIdentity(r.speaking, id) {
		return
	}
	from := callsignOf(r.speaking)
	r.speaking = copyIdentity(id)
	r.record(event.SpeakingChanged{ID: uuid.New(), Room: r.Name, RoomID: r.ID, From: from, To: callsignOf(id), At: r.now()})
}

func (r *Room) record(e event.DomainEvent) {
	r.outbox = append(r.outbox, e)
}

func (r *Room) isHost(id Identity) bool {
	return r.host != nil && *r.host == id
}

func (r *Room) isSpeaking(id Identity) bool {
	return r.speaking != nil && *r.speaking == id
}

func (r *Room) member(id Identity) *Member {
	if idx := r.index(id); idx >= 0 {
		return r.members[idx]
	}
	return nil
}

func (r *Room) index(id Identity) int {
	_, idx, ok := lo.FindIndexOf(r.members, func(m *Member) bool { return m.Identity == id })
	if !ok {
		return -1
	}
	return idx
}

func (r *Room) lookup(callsign string) (*Member, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	m, ok := lo.Find(r.members, func(m *Member) bool { return m.Callsign == callsign })
	if !ok {
		return nil, fmt.Errorf("%w %q", errors.ErrNoSuchCallsign, callsign)
	}
	return m, nil
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	return lo.ToPtr(*id)
}

func callsignOf(id *Identity) string {
	if id == nil {
		return ""
	}
	return id.Callsign()
}

package gateway

import (
	"fmt"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"time"
)

// Inbound message types
const (
	TypeTransmit  = "transmit"
	TypeCommand   = "command"
	TypeWPM       = "wpm"
	TypeAccessKey = "access_key"
)

// Outbound message types
const (
	TypeMemberJoined    = "member_joined"
	TypeMemberLeft      = "member_left"
	TypeHostChanged     = "host_changed"
	TypeSpeakingChanged = "speaking_changed"
	TypeTransmitted     = "transmitted"
	TypeRoomClosed      = "room_closed"
	TypeNotice          = "notice"
	TypeState           = "state"
)

// Inbound is what a client sends as a text frame.
type Inbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Text    string `json:"text,omitempty"`
	WPM     int    `json:"wpm,omitempty"`
	Key     string `json:"key,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// Outbound is every JSON notification pushed to a client.
type Outbound struct {
	Type    string    `json:"type"`
	Room    string    `json:"room"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type MemberPayload struct {
	Callsign string `json:"callsign"`
	Pending  bool   `json:"pending,omitempty"`
}

type ChangePayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type TransmittedPayload struct {
	Callsign  string  `json:"callsign"`
	Morse     string  `json:"morse"`
	WPM       int     `json:"wpm"`
	Frequency float64 `json:"frequency"`
}

type NoticePayload struct {
	Text string `json:"text"`
}

type StatePayload struct {
	Net           bool   `json:"net"`
	Callsign      string `json:"callsign"`
	WPM           int    `json:"wpm"`
	Host          string `json:"host,omitempty"`
	Speaking      string `json:"speaking,omitempty"`
	Members       int    `json:"members"`
	CanTransmit   bool   `json:"can_transmit"`
	CanAssign     bool   `json:"can_assign"`
	CanRelinquish bool   `json:"can_relinquish"`
}

// ToCommand turns an inbound message of id into a room command.
func ToCommand(room string, id domain.Identity, in Inbound) (domain.Command, error) {
	switch in.Type {
	case TypeTransmit:
		return domain.TransmitCommand{Room: room, By: id, Content: in.Content, Kind: domain.ParseContentKind(in.Kind)}, nil
	case TypeCommand:
		return domain.ParseCommand(room, id, in.Text)
	case TypeWPM:
		return domain.SetWPMCommand{Room: room, By: id, WPM: in.WPM}, nil
	case TypeAccessKey:
		return domain.SetAccessKeyCommand{Room: room, By: id, Key: in.Key, Confirm: in.Confirm}, nil
	default:
		return nil, fmt.Errorf("%w %q", errors.ErrUnknownCommand, in.Type)
	}
}

// ToOutbound maps a domain event to its wire form.
func ToOutbound(e event.DomainEvent) (Outbound, bool) {
	switch evt := e.(type) {
	case event.MemberJoined:
		return Outbound{TypeMemberJoined, evt.Room, evt.At, MemberPayload{evt.Callsign, evt.Pending}}, true
	case event.MemberLeft:
		return Outbound{TypeMemberLeft, evt.Room, evt.At, MemberPayload{Callsign: evt.Callsign}}, true
	case event.HostChanged:
		return Outbound{TypeHostChanged, evt.Room, evt.At, ChangePayload{evt.From, evt.To}}, true
	case event.SpeakingChanged:
		return Outbound{TypeSpeakingChanged, evt.Room, evt.At, ChangePayload{evt.From, evt.To}}, true
	case event.Transmitted:
		return Outbound{TypeTransmitted, evt.Room, evt.At,
			TransmittedPayload{evt.Callsign, evt.Morse, evt.WPM, evt.Frequency}}, true
	case event.RoomClosed:
		return Outbound{TypeRoomClosed, evt.Room, evt.At, nil}, true
	case event.Notice:
		return Outbound{TypeNotice, evt.Room, evt.At, NoticePayload{evt.Text}}, true
	case event.StateView:
		return Outbound{TypeState, evt.Room, evt.At, StatePayload{
			Net:           evt.Net,
			Callsign:      evt.Callsign,
			WPM:           evt.WPM,
			Host:          evt.Host,
			Speaking:      evt.Speaking,
			Members:       evt.Members,
			CanTransmit:   evt.CanTransmit,
			CanAssign:     evt.CanAssign,
			CanRelinquish: evt.CanRelinquish,
		}}, true
	default:
		return Outbound{}, false
	}
}

package domain

import (
	"fmt"
	"morse-lab/errors"
	"strconv"
	"strings"
)

// Command is anything a participant asks of a room. Commands are applied by
// the room worker in the order they are queued.
type Command interface {
	RoomName() string
	Sender() Identity
}

// ContentKind tells whether transmitted content still has to be encoded.
type ContentKind int

const (
	Text ContentKind = iota
	Morse
)

func (k ContentKind) String() string {
	if k == Morse {
		return "morse"
	}
	return "text"
}

// ParseContentKind accepts "text" and "morse", defaulting to Text.
func ParseContentKind(s string) ContentKind {
	if strings.EqualFold(strings.TrimSpace(s), "morse") {
		return Morse
	}
	return Text
}

type TransmitCommand struct {
	Room    string
	By      Identity
	Content string
	Kind    ContentKind
}

type SetWPMCommand struct {
	Room string
	By   Identity
	WPM  int
}

type TransferHostCommand struct {
	Room     string
	By       Identity
	Callsign string
}

type TransferSpeakingCommand struct {
	Room     string
	By       Identity
	Callsign string
}

type RelinquishCommand struct {
	Room string
	By   Identity
}

type ListUsersCommand struct {
	Room string
	By   Identity
}

type LeaveCommand struct {
	Room string
	By   Identity
}

type SetAccessKeyCommand struct {
	Room    string
	By      Identity
	Key     string
	Confirm string
}

func (c TransmitCommand) RoomName() string         { return c.Room }
func (c SetWPMCommand) RoomName() string           { return c.Room }
func (c TransferHostCommand) RoomName() string     { return c.Room }
func (c TransferSpeakingCommand) RoomName() string { return c.Room }
func (c RelinquishCommand) RoomName() string       { return c.Room }
func (c ListUsersCommand) RoomName() string        { return c.Room }
func (c LeaveCommand) RoomName() string            { return c.Room }
func (c SetAccessKeyCommand) RoomName() string     { return c.Room }

func (c TransmitCommand) Sender() Identity         { return c.By }
func (c SetWPMCommand) Sender() Identity           { return c.By }
func (c TransferHostCommand) Sender() Identity     { return c.By }
func (c TransferSpeakingCommand) Sender() Identity { return c.By }
func (c RelinquishCommand) Sender() Identity       { return c.By }
func (c ListUsersCommand) Sender() Identity        { return c.By }
func (c LeaveCommand) Sender() Identity            { return c.By }
func (c SetAccessKeyCommand) Sender() Identity     { return c.By }

// ParseCommand turns a typed text command into a Command:
//
//	done | bye | users | host <callsign> | speaker <callsign> | wpm <n>
func ParseCommand(room string, by Identity, input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, errors.ErrUnknownCommand
	}
	arg := strings.Join(fields[1:], " ")
	switch verb := strings.ToLower(fields[0]); verb {
	case "done":
		return RelinquishCommand{Room: room, By: by}, nil
	case "bye":
		return LeaveCommand{Room: room, By: by}, nil
	case "users":
		return ListUsersCommand{Room: room, By: by}, nil
	case "host", "speaker":
		if arg == "" {
			return nil, fmt.Errorf("%w %q", errors.ErrNoSuchCallsign, arg)
		}
		callsign := strings.ToUpper(arg)
		if verb == "host" {
			return TransferHostCommand{Room: room, By: by, Callsign: callsign}, nil
		}
		return TransferSpeakingCommand{Room: room, By: by, Callsign: callsign}, nil
	case "wpm":
		wpm, err := ParseWPM(arg)
		if err != nil {
			return nil, err
		}
		return SetWPMCommand{Room: room, By: by, WPM: wpm}, nil
	default:
		return nil, fmt.Errorf("%w %q", errors.ErrUnknownCommand, fields[0])
	}
}

// ParseWPM parses a strictly positive words-per-minute value.
func ParseWPM(s string) (int, error) {
	wpm, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || wpm < 1 {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidWPM, s)
	}
	return wpm, nil
}

package domain

import (
	"morse-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"done", RelinquishCommand{Room: "bravo", By: alice}},
		{"  BYE ", LeaveCommand{Room: "bravo", By: alice}},
		{"users", ListUsersCommand{Room: "bravo", By: alice}},
		{"host ae2lll", TransferHostCommand{Room: "bravo", By: alice, Callsign: "AE2LLL"}},
		{"speaker AE2LLL", TransferSpeakingCommand{Room: "bravo", By: alice, Callsign: "AE2LLL"}},
		{"wpm 20", SetWPMCommand{Room: "bravo", By: alice, WPM: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand("bravo", alice, tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, "bravo", got.RoomName())
			require.Equal(t, alice, got.Sender())
		})
	}
}

func TestParseCommand_Rejections(t *testing.T) {
	req := require.New(t)

	_, err := ParseCommand("bravo", alice, "wpm fast")
	req.ErrorIs(err, errors.ErrInvalidWPM)

	_, err = ParseCommand("bravo", alice, "wpm 0")
	req.ErrorIs(err, errors.ErrInvalidWPM)

	_, err = ParseCommand("bravo", alice, "speaker")
	req.ErrorIs(err, errors.ErrNoSuchCallsign)

	_, err = ParseCommand("bravo", alice, "qrz?")
	req.ErrorIs(err, errors.ErrUnknownCommand)

	_, err = ParseCommand("bravo", alice, "   ")
	req.ErrorIs(err, errors.ErrUnknownCommand)
}

func TestParseContentKind(t *testing.T) {
	req := require.New(t)
	req.Equal(Morse, ParseContentKind(" MORSE"))
	req.Equal(Text, ParseContentKind("text"))
	req.Equal(Text, ParseContentKind(""))
	req.Equal("morse", Morse.String())
}

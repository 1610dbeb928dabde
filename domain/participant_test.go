package domain

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
	"morse-lab/errors"
)

func TestCallsign_BitExact(t *testing.T) {
	req := require.New(t)

	// guild ..5678 -> A, E; guild[1] = 2; user ..765432 -> G, C, Y
	req.Equal("AE2GCY", Callsign("123456789012345678", "987654321098765432"))
	req.Equal("AE2LLL", Callsign("123456789012345678", "111111111111111111"))
}

func TestCallsign_IsPure(t *testing.T) {
	req := require.New(t)
	id := Identity{RealmID: "804310600175927296", UserID: "349291238623780864"}

	first := id.Callsign()
	req.Len(first, 6)
	req.Equal(first, id.Callsign())
	req.True(unicode.IsDigit(rune(first[2])))
	req.Equal(id.RealmID[1], first[2])
}

func TestCallsign_ShortIdsArePadded(t *testing.T) {
	req := require.New(t)

	// "42" reads as 000042: A + 42%26 then A + 0 for each part
	req.Equal("QA2QAA", Callsign("42", "42"))
}

func TestFrequency(t *testing.T) {
	req := require.New(t)
	req.Equal(552.0, Frequency("987654321098765432"))
	req.Equal(220.0, Frequency("660"))
	req.Equal(879.0, Frequency("659"))
}

func TestNewIdentity(t *testing.T) {
	req := require.New(t)

	id, err := NewIdentity(" 123456 ", "42")
	req.NoError(err)
	req.Equal(Identity{RealmID: "123456", UserID: "42"}, id)
	req.Equal("123456:42", id.Key())

	_, err = NewIdentity("12a", "42")
	req.ErrorIs(err, errors.ErrInvalidIdentity)

	_, err = NewIdentity("1", "42")
	req.ErrorIs(err, errors.ErrInvalidIdentity)

	_, err = NewIdentity("12", "")
	req.ErrorIs(err, errors.ErrInvalidIdentity)
}

// Package domain contains core concepts of the telegraphy system.
// This file defines participant identities and the values derived from them.
// No runtime, network, or audio logic should be added here.
package domain

import (
	"fmt"
	"morse-lab/errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Identity is the immutable {realm, user} pair a participant is known by.
// Both parts are decimal strings as handed over by the hosting platform.
type Identity struct {
	RealmID string `validate:"required,number,min=2"`
	UserID  string `validate:"required,number"`
}

func NewIdentity(realmID, userID string) (Identity, error) {
	id := Identity{RealmID: strings.TrimSpace(realmID), UserID: strings.TrimSpace(userID)}
	if err := validate.Struct(id); err != nil {
		return Identity{}, fmt.Errorf("%w: %s", errors.ErrInvalidIdentity, err.Error())
	}
	return id, nil
}

// Key is the identity's map key across registries and sinks.
func (i Identity) Key() string {
	return i.RealmID + ":" + i.UserID
}

func (i Identity) String() string {
	return i.Key()
}

// Callsign derives the 6 character pseudonym of an identity:
// two letters from the realm, the realm's second digit, three letters from
// the user. It is never stored, always recomputed.
func (i Identity) Callsign() string {
	return Callsign(i.RealmID, i.UserID)
}

// Frequency is the tone pitch in Hz the participant transmits on.
func (i Identity) Frequency() float64 {
	return Frequency(i.UserID)
}

// Callsign is the pure function behind Identity.Callsign. Ids shorter than
// six digits are read as if left-padded with zeros.
func Callsign(realmID, userID string) string {
	g, u := pad(realmID), pad(userID)
	n := len(g)
	m := len(u)
	var b strings.Builder
	b.WriteByte(letter(g[n-2:]))
	b.WriteByte(letter(g[n-4 : n-2]))
	b.WriteByte(secondDigit(realmID))
	b.WriteByte(letter(u[m-2:]))
	b.WriteByte(letter(u[m-4 : m-2]))
	b.WriteByte(letter(u[m-6 : m-4]))
	return b.String()
}

// Frequency maps a user id to userID mod 660 + 220 Hz, which keeps every
// participant between 220 and 879 Hz.
func Frequency(userID string) float64 {
	mod := 0
	for _, c := range userID {
		if c < '0' || c > '9' {
			continue
		}
		mod = (mod*10 + int(c-'0')) % 660
	}
	return float64(mod + 220)
}

func pad(id string) string {
	if len(id) >= 6 {
		return id
	}
	return strings.Repeat("0", 6-len(id)) + id
}

func letter(digits string) byte {
	n, _ := strconv.Atoi(digits)
	return byte('A' + n%26)
}

func secondDigit(realmID string) byte {
	if len(realmID) < 2 {
		return '0'
	}
	return realmID[1]
}

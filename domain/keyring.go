package domain

import "crypto/subtle"

// Keyring seals room access keys. A room only keeps what Seal returned and
// checks candidates with Match.
type Keyring interface {
	Seal(key string) (string, error)
	Match(key, sealed string) bool
}

// PlainKeyring keeps keys as they are. Good enough for tests and local runs.
type PlainKeyring struct{}

func (PlainKeyring) Seal(key string) (string, error) { return key, nil }

func (PlainKeyring) Match(key, sealed string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(sealed)) == 1
}

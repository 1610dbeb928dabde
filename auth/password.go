package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"morse-lab/domain"
	"morse-lab/errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, OWASP minimum for interactive use. Access keys are
// checked on the room goroutine so they stay light.
const (
	Memory      = 19 * 1024 // 19 MB
	Iterations  = 2
	Parallelism = 1
	SaltLength  = 16
	KeyLength   = 32
)

var _ domain.Keyring = Argon2Keyring{}

// Argon2Keyring seals room access keys with Argon2id.
type Argon2Keyring struct{}

func (Argon2Keyring) Seal(key string) (string, error) {
	return HashKey(key)
}

func (Argon2Keyring) Match(key, sealed string) bool {
	ok, err := CompareKey(key, sealed)
	return err == nil && ok
}

// HashKey generates an Argon2id hash from a plain text key
func HashKey(key string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(key), salt, Iterations, Memory, Parallelism, KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Memory, Iterations, Parallelism, b64Salt, b64Hash), nil
}

// CompareKey compares a plain text key with a stored hash
func CompareKey(key, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errors.ErrInvalidHash
	}

	var version, memory, iterations, parallelism int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrInvalidHash, err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	comparisonHash := argon2.IDKey([]byte(key), salt, uint32(iterations), uint32(memory),
		uint8(parallelism), uint32(len(decodedHash)))

	// Constant time comparison
	return subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1, nil
}

package auth

import (
	"morse-lab/domain"
	"morse-lab/errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var alice = domain.Identity{RealmID: "123456789012345678", UserID: "987654321098765432"}

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)

	hash, err := HashKey("s3cret")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := CompareKey("s3cret", hash)
	req.NoError(err)
	req.True(match)

	match, err = CompareKey("guess", hash)
	req.NoError(err)
	req.False(match)

	_, err = CompareKey("s3cret", "plain")
	req.ErrorIs(err, errors.ErrInvalidHash)
}

func TestArgon2Keyring_GuardsRoom(t *testing.T) {
	req := require.New(t)
	bob := domain.Identity{RealmID: "123456789012345678", UserID: "111111111111111111"}
	carol := domain.Identity{RealmID: "123456789012345678", UserID: "222222222222222222"}
	room := domain.NewRoom("vault", false).WithKeyring(Argon2Keyring{})

	req.NoError(room.Join(alice, "s3cret", "s3cret"))

	req.ErrorIs(room.Join(bob, "guess", ""), errors.ErrWrongAccessKey)
	req.NoError(room.Join(carol, "s3cret", ""))
}

func TestSigner_RoundTrip(t *testing.T) {
	req := require.New(t)
	signer := NewSigner("test-secret", time.Hour)

	token, err := signer.GenerateToken(alice)
	req.NoError(err)

	id, err := signer.ValidateToken(token)
	req.NoError(err)
	req.Equal(alice, id)
}

func TestSigner_Rejects(t *testing.T) {
	req := require.New(t)
	signer := NewSigner("test-secret", time.Hour)
	token, err := signer.GenerateToken(alice)
	req.NoError(err)

	// Signed with another secret
	_, err = NewSigner("other-secret", time.Hour).ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Expired
	expired := NewSigner("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.GenerateToken(alice)
	req.NoError(err)
	_, err = signer.ValidateToken(old)
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Garbage
	_, err = signer.ValidateToken("not.a.token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	token, err := signer.GenerateToken(alice)
	require.NoError(t, err)

	var seen domain.Identity
	handler := Middleware(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusNoContent},
		{"query parameter", func(r *http.Request) { r.URL.RawQuery = "token=" + token }, http.StatusNoContent},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			seen = domain.Identity{}
			r := httptest.NewRequest(http.MethodGet, "/ws/rooms/alpha", nil)
			tt.setup(r)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, r)

			req.Equal(tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				req.Equal(alice, seen)
			}
		})
	}
}

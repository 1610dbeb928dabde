package auth

import (
	"fmt"
	"morse-lab/domain"
	"morse-lab/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "morse-lab"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	RealmID string `json:"realm_id"`
	UserID  string `json:"user_id"`
	jwt.RegisteredClaims
}

// Signer issues and checks the tokens carrying a participant identity.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed JWT for id.
func (s *Signer) GenerateToken(id domain.Identity) (string, error) {
	now := s.now()
	claims := &CustomClaims{
		RealmID: id.RealmID,
		UserID:  id.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Key(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	// HS256 (HMAC with SHA256)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// ValidateToken checks signature, expiry and issuer, then returns the
// identity the token was issued for.
func (s *Signer) ValidateToken(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return domain.Identity{}, errors.ErrInvalidToken
	}
	return domain.NewIdentity(claims.RealmID, claims.UserID)
}

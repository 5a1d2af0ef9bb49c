package outbound

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned when an operator login does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTPort defines access token operations.
type JWTPort interface {
	// GenerateAccessToken generates an access token for the subject.
	GenerateAccessToken(subject string) (string, time.Time, error)

	// ValidateAccessToken validates an access token.
	ValidateAccessToken(token string) (*JWTClaims, error)
}

// JWTClaims represents JWT token claims.
type JWTClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// CredentialVerifierPort checks operator credentials.
type CredentialVerifierPort interface {
	// Verify returns ErrInvalidCredentials if the pair does not match.
	Verify(username, password string) error
}

package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// dummyHash is compared against for unknown users so lookups take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-operator"), bcrypt.DefaultCost)

// credentialVerifier implements outbound.CredentialVerifierPort against
// bcrypt hashes loaded from configuration.
type credentialVerifier struct {
	hashes map[string][]byte
}

// NewCredentialVerifier creates a verifier from username to bcrypt hash.
func NewCredentialVerifier(operators map[string]string) outbound.CredentialVerifierPort {
	hashes := make(map[string][]byte, len(operators))
	for username, hash := range operators {
		hashes[username] = []byte(hash)
	}
	return &credentialVerifier{hashes: hashes}
}

func (v *credentialVerifier) Verify(username, password string) error {
	hash, ok := v.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return outbound.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return outbound.ErrInvalidCredentials
	}
	return nil
}

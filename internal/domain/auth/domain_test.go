package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) Verify(username, password string) error {
	return m.Called(username, password).Error(0)
}

type MockJWTPort struct {
	mock.Mock
}

func (m *MockJWTPort) GenerateAccessToken(subject string) (string, time.Time, error) {
	args := m.Called(subject)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockJWTPort) ValidateAccessToken(token string) (*outbound.JWTClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.JWTClaims), args.Error(1)
}

func TestAuthDomain_Login(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		creds := new(MockCredentialVerifier)
		jwt := new(MockJWTPort)
		creds.On("Verify", "ops", "pw").Return(nil)
		jwt.On("GenerateAccessToken", "ops").Return("token-1", expiresAt, nil)

		resp, err := NewAuthDomain(creds, jwt, zap.NewNop()).Login(ctx, " ops ", "pw")

		require.NoError(t, err)
		assert.Equal(t, "token-1", resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, expiresAt, resp.ExpiresAt)
		creds.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		creds := new(MockCredentialVerifier)
		jwt := new(MockJWTPort)
		creds.On("Verify", "ops", "bad").Return(outbound.ErrInvalidCredentials)

		_, err := NewAuthDomain(creds, jwt, zap.NewNop()).Login(ctx, "ops", "bad")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		jwt.AssertNotCalled(t, "GenerateAccessToken", mock.Anything)
	})

	t.Run("empty fields never reach the verifier", func(t *testing.T) {
		creds := new(MockCredentialVerifier)
		d := NewAuthDomain(creds, new(MockJWTPort), nil)

		_, err := d.Login(ctx, "  ", "pw")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = d.Login(ctx, "ops", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		creds.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("token signing failure", func(t *testing.T) {
		creds := new(MockCredentialVerifier)
		jwt := new(MockJWTPort)
		creds.On("Verify", "ops", "pw").Return(nil)
		jwt.On("GenerateAccessToken", "ops").Return("", time.Time{}, errors.New("boom"))

		_, err := NewAuthDomain(creds, jwt, zap.NewNop()).Login(ctx, "ops", "pw")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthDomain_ValidateAccessToken(t *testing.T) {
	jwt := new(MockJWTPort)
	jwt.On("ValidateAccessToken", "good").Return(&outbound.JWTClaims{Subject: "ops"}, nil)
	jwt.On("ValidateAccessToken", "bad").Return(nil, errors.New("signature is invalid"))
	d := NewAuthDomain(new(MockCredentialVerifier), jwt, zap.NewNop())

	claims, err := d.ValidateAccessToken("good")
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = d.ValidateAccessToken("bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

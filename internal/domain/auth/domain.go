package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"go.uber.org/zap"
)

// AuthDomain authenticates operators of the payment API.
type AuthDomain interface {
	// Login exchanges operator credentials for a bearer token.
	Login(ctx context.Context, username, password string) (*model.TokenResponse, error)

	// ValidateAccessToken returns the claims of a valid token.
	ValidateAccessToken(token string) (*outbound.JWTClaims, error)
}

// authDomain implements AuthDomain.
type authDomain struct {
	credentials outbound.CredentialVerifierPort
	jwt         outbound.JWTPort
	logger      *zap.Logger
}

// NewAuthDomain creates a new auth domain service.
func NewAuthDomain(
	credentials outbound.CredentialVerifierPort,
	jwt outbound.JWTPort,
	logger *zap.Logger,
) AuthDomain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authDomain{
		credentials: credentials,
		jwt:         jwt,
		logger:      logger,
	}
}

func (d *authDomain) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := d.credentials.Verify(username, password); err != nil {
		if errors.Is(err, outbound.ErrInvalidCredentials) {
			d.logger.Warn("operator login rejected", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	token, expiresAt, err := d.jwt.GenerateAccessToken(username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	d.logger.Info("operator logged in", zap.String("username", username))
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (d *authDomain) ValidateAccessToken(token string) (*outbound.JWTClaims, error) {
	claims, err := d.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

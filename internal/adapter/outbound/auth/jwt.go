package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

const issuer = "payment-service"

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// jwtManager implements outbound.JWTPort with HS256 tokens.
type jwtManager struct {
	secret            []byte
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(cfg *JWTConfig) outbound.JWTPort {
	expiry := cfg.AccessTokenExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &jwtManager{
		secret:            []byte(cfg.Secret),
		accessTokenExpiry: expiry,
		now:               time.Now,
	}
}

func (m *jwtManager) GenerateAccessToken(subject string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.accessTokenExpiry)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *jwtManager) ValidateAccessToken(tokenString string) (*outbound.JWTClaims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}

	return &outbound.JWTClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

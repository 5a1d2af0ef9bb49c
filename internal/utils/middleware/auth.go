package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	apperrors "github.com/kedarnelavelli/payment-service/internal/utils/errors"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// OperatorKey is the context key for the authenticated operator.
	OperatorKey = "operator"
)

// JWTValidator validates access tokens.
type JWTValidator interface {
	ValidateAccessToken(token string) (*outbound.JWTClaims, error)
}

// RequireAuth returns a middleware that rejects requests without a valid bearer token.
func RequireAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortWithError(c, apperrors.Unauthorized("Authorization header required"))
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			abortWithError(c, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(OperatorKey, claims.Subject)
		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
}

// GetOperator returns the authenticated operator, or "" if none.
func GetOperator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}

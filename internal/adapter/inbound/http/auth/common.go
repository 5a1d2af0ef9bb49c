package authhttp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/domain/auth"
	apperrors "github.com/kedarnelavelli/payment-service/internal/utils/errors"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

// handleError maps auth domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		appErr = apperrors.Unauthorized("invalid username or password")
	case errors.Is(err, auth.ErrInvalidToken):
		appErr = apperrors.Unauthorized("invalid or expired token")
	default:
		logger.FromContext(c.Request.Context()).Error("auth request failed", logger.Err(err))
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}

func respondValidation(c *gin.Context, err error) {
	appErr := apperrors.ValidationError(err.Error())
	c.JSON(http.StatusBadRequest, appErr.ToResponse())
}

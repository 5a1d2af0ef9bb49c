package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	apperrors "github.com/kedarnelavelli/payment-service/internal/utils/errors"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

// parseOrderID reads the :orderId path parameter, writing a 400 if it is malformed.
func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		respondError(c, apperrors.ValidationError("orderId must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the request body, writing a VALIDATION_ERROR on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.ValidationError(err.Error()))
		return false
	}
	return true
}

// handleError maps payment domain errors to HTTP responses. Declines and
// transport failures still changed the order, so it is returned in details.
func handleError(c *gin.Context, err error, order *model.PaymentOrder) {
	appErr := apperrors.FromPaymentError(err)

	switch appErr.StatusCode {
	case http.StatusPaymentRequired, http.StatusBadGateway:
		if order != nil {
			appErr = appErr.WithDetails(map[string]any{"order": model.NewPaymentResponse(order)})
		}
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("payment request failed",
			"code", appErr.Code,
			logger.Err(err),
		)
	}
	respondError(c, appErr)
}

func respondError(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.StatusCode, err.ToResponse())
}

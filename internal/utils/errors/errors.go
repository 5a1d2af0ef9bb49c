package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kedarnelavelli/payment-service/internal/domain/payment"
)

// Error codes returned to API clients.
const (
	CodeValidation                  = "VALIDATION_ERROR"
	CodeInvalidPaymentState         = "INVALID_PAYMENT_STATE"
	CodeResourceNotFound            = "RESOURCE_NOT_FOUND"
	CodeMissingReferenceTransaction = "MISSING_REFERENCE_TRANSACTION"
	CodeGatewayDeclined             = "GATEWAY_DECLINED"
	CodeGatewayUnavailable          = "GATEWAY_UNAVAILABLE"
	CodePersistenceFailure          = "PERSISTENCE_FAILURE"
	CodeNeedsReconciliation         = "NEEDS_RECONCILIATION"
	CodeOrderBusy                   = "ORDER_BUSY"
	CodeUnauthorized                = "UNAUTHORIZED"
	CodeInternal                    = "INTERNAL_SERVER_ERROR"
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// ToResponse wraps the error in the response envelope.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ValidationError creates a 400 validation error.
func ValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, http.StatusBadRequest, nil)
}

// NotFound creates a not found error.
func NotFound(message string) *AppError {
	return NewAppError(CodeResourceNotFound, message, http.StatusNotFound, nil)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// Internal creates an internal error. The cause is never shown to clients.
func Internal(err error) *AppError {
	return NewAppError(CodeInternal, "internal server error", http.StatusInternalServerError, err)
}

// FromPaymentError maps a payment domain error to its API error.
// Unknown errors become a 500.
func FromPaymentError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, payment.ErrInvalidCurrency):
		return NewAppError(CodeValidation, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, payment.ErrInvalidTransition):
		return NewAppError(CodeInvalidPaymentState, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, payment.ErrOrderNotFound):
		return NewAppError(CodeResourceNotFound, err.Error(), http.StatusNotFound, err)
	case errors.Is(err, payment.ErrMissingReferenceTransaction):
		return NewAppError(CodeMissingReferenceTransaction, err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, payment.ErrGatewayDeclined):
		return NewAppError(CodeGatewayDeclined, err.Error(), http.StatusPaymentRequired, err)
	case errors.Is(err, payment.ErrGatewayTransport):
		return NewAppError(CodeGatewayUnavailable, "payment gateway unavailable, outcome unknown", http.StatusBadGateway, err)
	case errors.Is(err, payment.ErrOrderBusy):
		return NewAppError(CodeOrderBusy, "another operation is in progress for this order", http.StatusConflict, err)
	case errors.Is(err, payment.ErrNeedsReconciliation):
		return NewAppError(CodeNeedsReconciliation, "payment processed by gateway but not recorded; do not retry", http.StatusInternalServerError, err)
	case errors.Is(err, payment.ErrPersistence):
		return NewAppError(CodePersistenceFailure, "failed to persist payment", http.StatusInternalServerError, err)
	default:
		return Internal(err)
	}
}

package payment

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not legal in the order's status.
	ErrInvalidTransition = errors.New("invalid payment state")

	// ErrOrderNotFound is returned when the order id is unknown.
	ErrOrderNotFound = errors.New("payment order not found")

	// ErrMissingReferenceTransaction is returned when a follow-up action has no
	// prior successful gateway transaction to reference.
	ErrMissingReferenceTransaction = errors.New("missing reference transaction")

	// ErrGatewayDeclined is returned when the gateway rejected the operation.
	ErrGatewayDeclined = errors.New("gateway declined")

	// ErrGatewayTransport is returned when the gateway call did not complete.
	// The outcome at the gateway is unknown.
	ErrGatewayTransport = errors.New("gateway transport failure")

	// ErrPersistence is returned when the store failed and no gateway effect is pending.
	ErrPersistence = errors.New("persistence failure")

	// ErrNeedsReconciliation is returned when the gateway acted but the local
	// record could not be updated. Retrying may charge twice.
	ErrNeedsReconciliation = errors.New("payment needs reconciliation")

	// ErrOrderBusy is returned when another operation holds the order. Retryable.
	ErrOrderBusy = errors.New("payment order busy")

	// ErrInvalidAmount is returned for a non-positive amount or one with more
	// than two decimal places.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned for a currency that is not a 3-letter code.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
)

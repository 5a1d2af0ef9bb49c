package outbound

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned by PaymentOrderDatabasePort when the id is unknown.
	ErrOrderNotFound = errors.New("payment order not found")

	// ErrLedgerEntryNotFound is returned when no ledger entry matches a query.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrLockNotAcquired is returned when another holder owns the order lock.
	ErrLockNotAcquired = errors.New("order lock not acquired")

	// ErrGatewayUnavailable is returned when the gateway is short-circuited.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// PaymentOrderDatabasePort defines payment order persistence operations.
type PaymentOrderDatabasePort interface {
	// FindByID finds an order by ID. Returns ErrOrderNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentOrder, error)

	// Save creates or updates an order by ID.
	Save(ctx context.Context, order *model.PaymentOrder) error
}

// PaymentLedgerPort is the append-only record of gateway call attempts.
type PaymentLedgerPort interface {
	// Append inserts a new entry. Existing entries are never touched.
	Append(ctx context.Context, txn *model.PaymentTransaction) error

	// LastSuccessfulTransactionID returns the gateway transaction id of the newest
	// SUCCESS entry for the order, restricted to types when any are given.
	// Returns ErrLedgerEntryNotFound if there is none.
	LastSuccessfulTransactionID(ctx context.Context, orderID uuid.UUID, types ...model.TransactionType) (string, error)

	// ListByOrderID returns all entries for the order, oldest first.
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error)
}

// PaymentGatewayPort is the boundary to the remote card processor.
//
// Business declines are reported as an outcome with Success=false and a nil error.
// A non-nil error means the call did not complete (transport, timeout, open circuit)
// and the monetary result at the gateway is unknown.
type PaymentGatewayPort interface {
	// Name returns the gateway name recorded on ledger entries.
	Name() string

	// Purchase authorizes and captures the order amount in one step.
	Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error)

	// Authorize places a hold for the order amount.
	Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error)

	// Capture settles a prior authorization.
	Capture(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error)

	// Cancel voids a prior authorization.
	Cancel(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error)

	// Refund returns amount of a settled transaction.
	Refund(ctx context.Context, order *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error)
}

// OrderLockPort provides per-order mutual exclusion.
type OrderLockPort interface {
	// TryLock acquires the lock without waiting. Returns ErrLockNotAcquired
	// if it is held elsewhere. The returned func releases the lock.
	TryLock(ctx context.Context, orderID uuid.UUID) (unlock func(), err error)
}

// ReconciliationQueuePort receives orders whose gateway state diverged from the local record.
type ReconciliationQueuePort interface {
	Enqueue(ctx context.Context, item *model.ReconciliationItem) error
}

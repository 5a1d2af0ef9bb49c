package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// PaymentLedger is an in-process, append-only PaymentLedgerPort.
// Entries are kept in insertion order per order.
type PaymentLedger struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]model.PaymentTransaction
}

// NewPaymentLedger creates an empty ledger.
func NewPaymentLedger() *PaymentLedger {
	return &PaymentLedger{entries: make(map[uuid.UUID][]model.PaymentTransaction)}
}

func (l *PaymentLedger) Append(_ context.Context, txn *model.PaymentTransaction) error {
	if txn == nil || txn.ID == uuid.Nil {
		return errors.New("append ledger entry: id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries[txn.OrderID] {
		if e.ID == txn.ID {
			return errors.New("append ledger entry: duplicate id")
		}
	}
	entry := *txn
	entry.RawResponse = slices.Clone(txn.RawResponse)
	l.entries[txn.OrderID] = append(l.entries[txn.OrderID], entry)
	return nil
}

func (l *PaymentLedger) LastSuccessfulTransactionID(_ context.Context, orderID uuid.UUID, types ...model.TransactionType) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[orderID]
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Status != model.TransactionStatusSuccess {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		return e.GatewayTransactionID, nil
	}
	return "", outbound.ErrLedgerEntryNotFound
}

func (l *PaymentLedger) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[orderID]
	out := make([]*model.PaymentTransaction, len(entries))
	for i := range entries {
		e := entries[i]
		e.RawResponse = slices.Clone(entries[i].RawResponse)
		out[i] = &e
	}
	return out, nil
}

// Compile-time check
var _ outbound.PaymentLedgerPort = (*PaymentLedger)(nil)

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"gorm.io/gorm"
)

// paymentLedgerAdapter implements outbound.PaymentLedgerPort.
// Rows are only ever inserted.
type paymentLedgerAdapter struct {
	db *gorm.DB
}

// NewPaymentLedgerAdapter creates a new payment ledger adapter.
func NewPaymentLedgerAdapter(db *gorm.DB) outbound.PaymentLedgerPort {
	return &paymentLedgerAdapter{db: db}
}

func (a *paymentLedgerAdapter) Append(ctx context.Context, txn *model.PaymentTransaction) error {
	if txn.ID == uuid.Nil {
		return errors.New("append ledger entry: id is required")
	}
	if err := a.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (a *paymentLedgerAdapter) LastSuccessfulTransactionID(ctx context.Context, orderID uuid.UUID, types ...model.TransactionType) (string, error) {
	query := a.db.WithContext(ctx).
		Model(&model.PaymentTransaction{}).
		Where("order_id = ? AND status = ?", orderID, model.TransactionStatusSuccess)
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}

	var txn model.PaymentTransaction
	err := query.Order("created_at DESC").Limit(1).Take(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", outbound.ErrLedgerEntryNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find last successful transaction: %w", err)
	}
	return txn.GatewayTransactionID, nil
}

func (a *paymentLedgerAdapter) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error) {
	var txns []*model.PaymentTransaction
	err := a.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return txns, nil
}

// Compile-time check
var _ outbound.PaymentLedgerPort = (*paymentLedgerAdapter)(nil)

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

// paymentOrderAdapter implements outbound.PaymentOrderDatabasePort.
type paymentOrderAdapter struct {
	db *gorm.DB
}

// NewPaymentOrderAdapter creates a new payment order database adapter.
func NewPaymentOrderAdapter(db *gorm.DB) outbound.PaymentOrderDatabasePort {
	return &paymentOrderAdapter{db: db}
}

func (a *paymentOrderAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := a.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, outbound.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment order by id: %w", err)
	}
	return &order, nil
}

// Save inserts the order or overwrites every column of an existing row.
func (a *paymentOrderAdapter) Save(ctx context.Context, order *model.PaymentOrder) error {
	if order.ID == uuid.Nil {
		return errors.New("save payment order: id is required")
	}
	if err := a.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("save payment order: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.PaymentOrderDatabasePort = (*paymentOrderAdapter)(nil)

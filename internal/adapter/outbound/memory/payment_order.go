package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// PaymentOrderStore is an in-process PaymentOrderDatabasePort.
// It stores copies so callers cannot mutate stored orders.
type PaymentOrderStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]model.PaymentOrder
}

// NewPaymentOrderStore creates an empty order store.
func NewPaymentOrderStore() *PaymentOrderStore {
	return &PaymentOrderStore{orders: make(map[uuid.UUID]model.PaymentOrder)}
}

func (s *PaymentOrderStore) FindByID(_ context.Context, id uuid.UUID) (*model.PaymentOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, outbound.ErrOrderNotFound
	}
	return &order, nil
}

func (s *PaymentOrderStore) Save(_ context.Context, order *model.PaymentOrder) error {
	if order == nil || order.ID == uuid.Nil {
		return errors.New("save payment order: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = *order
	return nil
}

// Compile-time check
var _ outbound.PaymentOrderDatabasePort = (*PaymentOrderStore)(nil)

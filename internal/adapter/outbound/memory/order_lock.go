package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// OrderLocker is an in-process OrderLockPort. It only serializes callers
// within one process; use the redis locker when running several replicas.
type OrderLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

// NewOrderLocker creates a new in-process order locker.
func NewOrderLocker() *OrderLocker {
	return &OrderLocker{held: make(map[uuid.UUID]struct{})}
}

func (l *OrderLocker) TryLock(_ context.Context, orderID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[orderID]; busy {
		return nil, outbound.ErrLockNotAcquired
	}
	l.held[orderID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, orderID)
			l.mu.Unlock()
		})
	}, nil
}

// Compile-time check
var _ outbound.OrderLockPort = (*OrderLocker)(nil)

package memory

import (
	"context"
	"sync"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// ReconciliationQueue keeps reconciliation items in process memory.
// Items are lost on restart; the redis queue is used when redis is configured.
type ReconciliationQueue struct {
	mu    sync.Mutex
	items []model.ReconciliationItem
}

// NewReconciliationQueue creates a new in-memory reconciliation queue.
func NewReconciliationQueue() *ReconciliationQueue {
	return &ReconciliationQueue{}
}

func (q *ReconciliationQueue) Enqueue(_ context.Context, item *model.ReconciliationItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, *item)
	return nil
}

// Items returns a copy of the queued items, oldest first.
func (q *ReconciliationQueue) Items() []model.ReconciliationItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.ReconciliationItem(nil), q.items...)
}

// Compile-time check
var _ outbound.ReconciliationQueuePort = (*ReconciliationQueue)(nil)

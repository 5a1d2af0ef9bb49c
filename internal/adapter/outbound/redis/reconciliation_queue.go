package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// ReconciliationQueueKey is the list operators drain to settle unrecorded gateway effects.
const ReconciliationQueueKey = "payment:reconciliation"

// reconciliationQueue implements outbound.ReconciliationQueuePort.
type reconciliationQueue struct {
	client *redis.Client
}

// NewReconciliationQueue creates a new reconciliation queue adapter.
func NewReconciliationQueue(client *redis.Client) outbound.ReconciliationQueuePort {
	return &reconciliationQueue{client: client}
}

func (q *reconciliationQueue) Enqueue(ctx context.Context, item *model.ReconciliationItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal reconciliation item: %w", err)
	}
	if err := q.client.RPush(ctx, ReconciliationQueueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue reconciliation item: %w", err)
	}
	return nil
}

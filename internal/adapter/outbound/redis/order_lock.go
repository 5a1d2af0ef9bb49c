package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

const orderLockKeyPrefix = "payment:lock:"

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// orderLocker implements outbound.OrderLockPort with SET NX PX.
type orderLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewOrderLocker creates a redis-backed order lock. ttl must exceed the
// longest gateway call so a live holder never loses its lock.
func NewOrderLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) outbound.OrderLockPort {
	return &orderLocker{client: client, ttl: ttl, logger: logger}
}

func (l *orderLocker) TryLock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	key := orderLockKeyPrefix + orderID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire order lock: %w", err)
	}
	if !ok {
		return nil, outbound.ErrLockNotAcquired
	}

	return func() {
		// The caller's context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release order lock", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}, nil
}

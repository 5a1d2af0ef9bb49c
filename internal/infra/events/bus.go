package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// Bus delivers payment events in process. Handlers run synchronously on the
// publishing goroutine, in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register subscribes handler to every event type it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
}

// Dispatch runs the handlers for the event's type. Handler errors are logged;
// they never reach the payment operation that published the event.
func (b *Bus) Dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("payment event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("order_id", event.OrderID().String()),
				zap.Error(err),
			)
		}
	}
}

// Publish implements outbound.EventPublisherPort.
func (b *Bus) Publish(ctx context.Context, event any) error {
	e, ok := event.(Event)
	if !ok {
		return fmt.Errorf("publish: %T is not a payment event", event)
	}
	b.Dispatch(ctx, e)
	return nil
}

// Compile-time check
var _ outbound.EventPublisherPort = (*Bus)(nil)

package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kedarnelavelli/payment-service/internal/infra/events"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/kedarnelavelli/payment-service/internal/utils/metrics"
)

// registerEventHandlers subscribes the payment event consumers to the bus.
func registerEventHandlers(bus *events.Bus, m *metrics.Metrics, queue outbound.ReconciliationQueuePort, zapLog *zap.Logger) {
	bus.Register(events.On(metricsHandler(m),
		events.PaymentStatusChangedType, events.PaymentReconciliationRequiredType))
	bus.Register(events.On(reconciliationHandler(queue, zapLog),
		events.PaymentReconciliationRequiredType))
}

func metricsHandler(m *metrics.Metrics) func(context.Context, events.Event) error {
	return func(_ context.Context, event events.Event) error {
		switch e := event.(type) {
		case *events.PaymentStatusChangedEvent:
			m.RecordTransition(string(e.Action), string(e.FromStatus), string(e.ToStatus))
		case *events.PaymentReconciliationRequiredEvent:
			m.RecordReconciliation(string(e.Item.Action))
		}
		return nil
	}
}

// reconciliationHandler queues orders whose gateway effect was not recorded.
// The request context may already be cancelled by the time the event fires.
func reconciliationHandler(queue outbound.ReconciliationQueuePort, zapLog *zap.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.PaymentReconciliationRequiredEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		item := e.Item
		if err := queue.Enqueue(context.WithoutCancel(ctx), &item); err != nil {
			return fmt.Errorf("enqueue order %s: %w", item.OrderID, err)
		}
		zapLog.Warn("order queued for reconciliation",
			zap.String("order_id", item.OrderID.String()),
			zap.String("action", string(item.Action)),
			zap.String("gateway_transaction_id", item.GatewayTransactionID),
			zap.String("reason", item.Reason),
		)
		return nil
	}
}

package events

import (
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/shopspring/decimal"
)

// Payment event type constants.
const (
	PaymentStatusChangedType          = "payment.status_changed"
	PaymentReconciliationRequiredType = "payment.reconciliation_required"
)

// PaymentStatusChangedEvent is emitted after every recorded gateway attempt,
// whether or not the order status moved.
type PaymentStatusChangedEvent struct {
	Header

	Action               model.PaymentAction `json:"action"`
	FromStatus           model.OrderStatus   `json:"from_status"`
	ToStatus             model.OrderStatus   `json:"to_status"`
	Amount               decimal.Decimal     `json:"amount"`
	Currency             string              `json:"currency"`
	Gateway              string              `json:"gateway"`
	GatewayTransactionID string              `json:"gateway_transaction_id,omitempty"`
	Success              bool                `json:"success"`
	TransportFailure     bool                `json:"transport_failure"`
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent.
func NewPaymentStatusChangedEvent(
	order *model.PaymentOrder,
	action model.PaymentAction,
	from model.OrderStatus,
	txn *model.PaymentTransaction,
) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		Header:               newHeader(PaymentStatusChangedType, order.ID),
		Action:               action,
		FromStatus:           from,
		ToStatus:             order.Status,
		Amount:               txn.Amount,
		Currency:             order.Currency,
		Gateway:              txn.GatewayName,
		GatewayTransactionID: txn.GatewayTransactionID,
		Success:              txn.IsSuccess(),
		TransportFailure:     txn.TransportFailure,
	}
}

// PaymentReconciliationRequiredEvent is emitted when the gateway acted but the
// local record could not be written.
type PaymentReconciliationRequiredEvent struct {
	Header

	Item model.ReconciliationItem `json:"item"`
}

// NewPaymentReconciliationRequiredEvent creates a new PaymentReconciliationRequiredEvent.
func NewPaymentReconciliationRequiredEvent(item model.ReconciliationItem) *PaymentReconciliationRequiredEvent {
	return &PaymentReconciliationRequiredEvent{
		Header: newHeader(PaymentReconciliationRequiredType, item.OrderID),
		Item:   item,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus represents the lifecycle status of a payment order.
type OrderStatus string

const (
	OrderStatusCreated           OrderStatus = "CREATED"
	OrderStatusAuthorized        OrderStatus = "AUTHORIZED"
	OrderStatusCaptured          OrderStatus = "CAPTURED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
	OrderStatusRefunded          OrderStatus = "REFUNDED"
	OrderStatusPartiallyRefunded OrderStatus = "PARTIALLY_REFUNDED"
	OrderStatusFailed            OrderStatus = "FAILED"
)

// AllOrderStatuses lists every order status.
var AllOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusAuthorized,
	OrderStatusCaptured,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusPartiallyRefunded,
	OrderStatusFailed,
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known status.
func (s OrderStatus) IsValid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentAction is an operation a caller can request on an order.
type PaymentAction string

const (
	ActionPurchase  PaymentAction = "PURCHASE"
	ActionAuthorize PaymentAction = "AUTHORIZE"
	ActionCapture   PaymentAction = "CAPTURE"
	ActionCancel    PaymentAction = "CANCEL"
	ActionRefund    PaymentAction = "REFUND"
)

// AllPaymentActions lists every action.
var AllPaymentActions = []PaymentAction{
	ActionPurchase,
	ActionAuthorize,
	ActionCapture,
	ActionCancel,
	ActionRefund,
}

func (a PaymentAction) String() string {
	return string(a)
}

// TransactionType returns the ledger entry type recorded for the action.
func (a PaymentAction) TransactionType() TransactionType {
	return TransactionType(a)
}

// TransactionType is the kind of gateway call a ledger entry records.
type TransactionType string

const (
	TransactionTypePurchase  TransactionType = "PURCHASE"
	TransactionTypeAuthorize TransactionType = "AUTHORIZE"
	TransactionTypeCapture   TransactionType = "CAPTURE"
	TransactionTypeCancel    TransactionType = "CANCEL"
	TransactionTypeRefund    TransactionType = "REFUND"
)

// TransactionStatus is the outcome of a gateway call attempt.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// PaymentOrder is a monetary order driven through the payment lifecycle.
// Amount and Currency never change after creation.
type PaymentOrder struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(19,4);not null"`
	Currency  string          `json:"currency" gorm:"type:varchar(3);not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(32);not null;index"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// TableName returns the table name for GORM.
func (PaymentOrder) TableName() string {
	return "payment_orders"
}

// PaymentTransaction is an immutable ledger entry for one gateway call attempt.
type PaymentTransaction struct {
	ID                   uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID              uuid.UUID         `json:"order_id" gorm:"type:uuid;not null;index:idx_payment_transactions_order_created"`
	Type                 TransactionType   `json:"type" gorm:"type:varchar(32);not null"`
	Status               TransactionStatus `json:"status" gorm:"type:varchar(16);not null"`
	Amount               decimal.Decimal   `json:"amount" gorm:"type:numeric(19,4);not null"`
	GatewayTransactionID string            `json:"gateway_transaction_id,omitempty" gorm:"type:varchar(100)"`
	GatewayName          string            `json:"gateway,omitempty" gorm:"type:varchar(32)"`
	TransportFailure     bool              `json:"transport_failure" gorm:"not null;default:false"`
	ErrorMessage         string            `json:"error_message,omitempty" gorm:"type:text"`
	RawResponse          datatypes.JSON    `json:"raw_response,omitempty"`
	CreatedAt            time.Time         `json:"created_at" gorm:"autoCreateTime:false;index:idx_payment_transactions_order_created"`
}

// TableName returns the table name for GORM.
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// IsSuccess returns true if the gateway accepted the attempt.
func (t *PaymentTransaction) IsSuccess() bool {
	return t.Status == TransactionStatusSuccess
}

// GatewayOutcome is the result a gateway reports for one call.
// A declined operation is Success=false with a message, never an error.
type GatewayOutcome struct {
	Success       bool
	TransactionID string
	ErrorMessage  string
	RawResponse   []byte
}

// ===== HTTP DTOs =====

// CreatePaymentRequest is the body for purchase and authorize.
type CreatePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// RefundRequest is the body for a refund.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PaymentResponse is the caller-facing view of an order.
type PaymentResponse struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Status   OrderStatus     `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewPaymentResponse builds a PaymentResponse from an order.
func NewPaymentResponse(o *PaymentOrder) *PaymentResponse {
	return &PaymentResponse{
		OrderID:  o.ID,
		Status:   o.Status,
		Amount:   o.Amount,
		Currency: o.Currency,
	}
}

// PaymentDetailsResponse is an order with its ledger and next legal actions.
type PaymentDetailsResponse struct {
	PaymentResponse
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Transactions []*PaymentTransaction `json:"transactions"`
	NextActions  []PaymentAction       `json:"next_actions"`
}

// ReconciliationItem describes an order whose gateway result was not recorded locally.
type ReconciliationItem struct {
	OrderID              uuid.UUID       `json:"order_id"`
	Action               PaymentAction   `json:"action"`
	Amount               decimal.Decimal `json:"amount"`
	GatewayName          string          `json:"gateway"`
	GatewayTransactionID string          `json:"gateway_transaction_id,omitempty"`
	Reason               string          `json:"reason"`
	OccurredAt           time.Time       `json:"occurred_at"`
}

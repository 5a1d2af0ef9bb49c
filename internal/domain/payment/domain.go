package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/infra/events"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/kedarnelavelli/payment-service/internal/domain/payment"

// maxAmountScale is the number of decimal places an amount may carry.
const maxAmountScale = 2

// PaymentDomain drives payment orders through their lifecycle against a gateway.
type PaymentDomain interface {
	// Purchase creates an order and authorizes and captures it in one gateway call.
	Purchase(ctx context.Context, amount decimal.Decimal, currency string) (*model.PaymentOrder, error)

	// Authorize creates an order and places a hold for its amount.
	Authorize(ctx context.Context, amount decimal.Decimal, currency string) (*model.PaymentOrder, error)

	// Capture settles an authorized order.
	Capture(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error)

	// Cancel voids an authorized order.
	Cancel(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error)

	// Refund returns amount of a captured order.
	Refund(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*model.PaymentOrder, error)

	// GetOrder returns an order by ID.
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error)

	// ListTransactions returns the ledger entries of an order, oldest first.
	ListTransactions(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error)
}

// Config holds payment domain configuration.
type Config struct {
	// GatewayTimeout bounds every gateway call.
	GatewayTimeout time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns default payment domain configuration.
func DefaultConfig() *Config {
	return &Config{
		GatewayTimeout: 30 * time.Second,
		Clock:          time.Now,
	}
}

// referenceTypes lists which successful ledger entries a follow-up action may reference.
var referenceTypes = map[model.PaymentAction][]model.TransactionType{
	model.ActionCapture: {model.TransactionTypeAuthorize},
	model.ActionCancel:  {model.TransactionTypeAuthorize},
	model.ActionRefund:  {model.TransactionTypePurchase, model.TransactionTypeCapture},
}

// paymentDomain implements PaymentDomain.
type paymentDomain struct {
	orderDB        outbound.PaymentOrderDatabasePort
	ledger         outbound.PaymentLedgerPort
	gateway        outbound.PaymentGatewayPort
	locker         outbound.OrderLockPort
	publisher      outbound.EventPublisherPort
	gatewayTimeout time.Duration
	clock          func() time.Time
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewPaymentDomain creates a new payment domain service.
func NewPaymentDomain(
	orderDB outbound.PaymentOrderDatabasePort,
	ledger outbound.PaymentLedgerPort,
	gateway outbound.PaymentGatewayPort,
	locker outbound.OrderLockPort,
	publisher outbound.EventPublisherPort,
	cfg *Config,
	logger *zap.Logger,
) PaymentDomain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().GatewayTimeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paymentDomain{
		orderDB:        orderDB,
		ledger:         ledger,
		gateway:        gateway,
		locker:         locker,
		publisher:      publisher,
		gatewayTimeout: timeout,
		clock:          clock,
		tracer:         otel.Tracer(tracerName),
		logger:         logger,
	}
}

func (d *paymentDomain) Purchase(ctx context.Context, amount decimal.Decimal, currency string) (*model.PaymentOrder, error) {
	return d.startOrder(ctx, model.ActionPurchase, amount, currency)
}

func (d *paymentDomain) Authorize(ctx context.Context, amount decimal.Decimal, currency string) (*model.PaymentOrder, error) {
	return d.startOrder(ctx, model.ActionAuthorize, amount, currency)
}

func (d *paymentDomain) Capture(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error) {
	return d.followUp(ctx, model.ActionCapture, orderID, nil)
}

func (d *paymentDomain) Cancel(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error) {
	return d.followUp(ctx, model.ActionCancel, orderID, nil)
}

func (d *paymentDomain) Refund(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*model.PaymentOrder, error) {
	amount, err := validateAmount(amount)
	if err != nil {
		return nil, err
	}
	return d.followUp(ctx, model.ActionRefund, orderID, &amount)
}

func (d *paymentDomain) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error) {
	return d.loadOrder(ctx, orderID)
}

func (d *paymentDomain) ListTransactions(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error) {
	if _, err := d.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	txns, err := d.ledger.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", ErrPersistence, err)
	}
	return txns, nil
}

// startOrder creates a CREATED order and runs the first gateway action on it.
func (d *paymentDomain) startOrder(ctx context.Context, action model.PaymentAction, amount decimal.Decimal, currency string) (order *model.PaymentOrder, err error) {
	ctx, span := d.startSpan(ctx, action)
	defer func() { endSpan(span, err) }()

	amount, err = validateAmount(amount)
	if err != nil {
		return nil, err
	}
	currency, err = normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	now := d.now()
	order = &model.PaymentOrder{
		ID:        uuid.New(),
		Amount:    amount,
		Currency:  currency,
		Status:    model.OrderStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(attribute.String("payment.order_id", order.ID.String()))

	unlock, err := d.lock(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := d.orderDB.Save(ctx, order); err != nil {
		d.logger.Error("failed to create payment order", zap.Error(err))
		return nil, fmt.Errorf("%w: create order: %w", ErrPersistence, err)
	}

	return d.execute(ctx, order, action, "", amount)
}

// followUp runs a gateway action that depends on a prior successful transaction.
func (d *paymentDomain) followUp(ctx context.Context, action model.PaymentAction, orderID uuid.UUID, refundAmount *decimal.Decimal) (order *model.PaymentOrder, err error) {
	ctx, span := d.startSpan(ctx, action, attribute.String("payment.order_id", orderID.String()))
	defer func() { endSpan(span, err) }()

	unlock, err := d.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err = d.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order.Status, action); err != nil {
		return nil, err
	}

	refTxnID, err := d.ledger.LastSuccessfulTransactionID(ctx, order.ID, referenceTypes[action]...)
	if errors.Is(err, outbound.ErrLedgerEntryNotFound) {
		d.logger.Error("no reference transaction for follow-up action",
			zap.String("order_id", order.ID.String()),
			zap.String("action", action.String()),
			zap.String("status", order.Status.String()),
		)
		return nil, fmt.Errorf("%w: no successful transaction to %s for order %s",
			ErrMissingReferenceTransaction, strings.ToLower(action.String()), order.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve reference transaction: %w", ErrPersistence, err)
	}

	amount := order.Amount
	if refundAmount != nil {
		amount = *refundAmount
	}
	return d.execute(ctx, order, action, refTxnID, amount)
}

// execute calls the gateway, records the attempt, derives and persists the new status.
// The caller holds the order lock.
func (d *paymentDomain) execute(ctx context.Context, order *model.PaymentOrder, action model.PaymentAction, refTxnID string, amount decimal.Decimal) (*model.PaymentOrder, error) {
	if err := ValidateTransition(order.Status, action); err != nil {
		return nil, err
	}

	// From here on the attempt must reach the ledger even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	outcome, callErr := d.callGateway(ctx, order, action, refTxnID, amount)
	txn := d.newLedgerEntry(order, action, amount, outcome, callErr)

	if err := d.ledger.Append(ctx, txn); err != nil {
		return nil, d.persistenceFailure(ctx, order, action, txn, "append ledger entry", err)
	}

	from := order.Status
	order.Status = deriveStatus(order, action, amount, txn.IsSuccess())
	d.touch(order)

	if err := d.orderDB.Save(ctx, order); err != nil {
		order.Status = from
		return nil, d.persistenceFailure(ctx, order, action, txn, "save order", err)
	}

	d.publish(ctx, events.NewPaymentStatusChangedEvent(order, action, from, txn))

	fields := []zap.Field{
		zap.String("order_id", order.ID.String()),
		zap.String("action", action.String()),
		zap.String("gateway", txn.GatewayName),
		zap.String("from_status", from.String()),
		zap.String("to_status", order.Status.String()),
		zap.String("amount", amount.String()),
	}

	switch {
	case callErr != nil:
		d.logger.Error("gateway call failed", append(fields, zap.Bool("retryable", true), zap.Error(callErr))...)
		return order, fmt.Errorf("%w: %s: %w", ErrGatewayTransport, strings.ToLower(action.String()), callErr)
	case !txn.IsSuccess():
		d.logger.Warn("gateway declined", append(fields, zap.String("reason", txn.ErrorMessage))...)
		return order, fmt.Errorf("%w: %s", ErrGatewayDeclined, txn.ErrorMessage)
	}

	d.logger.Info("payment action completed", append(fields, zap.String("gateway_transaction_id", txn.GatewayTransactionID))...)
	return order, nil
}

type gatewayResult struct {
	outcome *model.GatewayOutcome
	err     error
}

// callGateway runs one gateway call bounded by the gateway timeout, even if the
// adapter ignores its context.
func (d *paymentDomain) callGateway(ctx context.Context, order *model.PaymentOrder, action model.PaymentAction, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.gatewayTimeout)
	defer cancel()

	// Adapters get a snapshot so a late return cannot race with status updates.
	snapshot := *order
	done := make(chan gatewayResult, 1)
	go func() {
		var r gatewayResult
		switch action {
		case model.ActionPurchase:
			r.outcome, r.err = d.gateway.Purchase(ctx, &snapshot)
		case model.ActionAuthorize:
			r.outcome, r.err = d.gateway.Authorize(ctx, &snapshot)
		case model.ActionCapture:
			r.outcome, r.err = d.gateway.Capture(ctx, &snapshot, refTxnID)
		case model.ActionCancel:
			r.outcome, r.err = d.gateway.Cancel(ctx, &snapshot, refTxnID)
		case model.ActionRefund:
			r.outcome, r.err = d.gateway.Refund(ctx, &snapshot, refTxnID, amount)
		default:
			r.err = fmt.Errorf("unsupported action %q", action)
		}
		done <- r
	}()

	select {
	case r := <-done:
		if r.err == nil && r.outcome == nil {
			r.err = errors.New("gateway returned no outcome")
		}
		return r.outcome, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway call timed out after %s: %w", d.gatewayTimeout, ctx.Err())
	}
}

func (d *paymentDomain) newLedgerEntry(order *model.PaymentOrder, action model.PaymentAction, amount decimal.Decimal, outcome *model.GatewayOutcome, callErr error) *model.PaymentTransaction {
	txn := &model.PaymentTransaction{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Type:        action.TransactionType(),
		Amount:      amount,
		GatewayName: d.gateway.Name(),
		CreatedAt:   d.now(),
	}

	switch {
	case callErr != nil:
		txn.Status = model.TransactionStatusFailed
		// A short-circuited call never left the process, so its outcome is known.
		txn.TransportFailure = !errors.Is(callErr, outbound.ErrGatewayUnavailable)
		txn.ErrorMessage = callErr.Error()
		txn.RawResponse = transportMarker(callErr)
	case outcome.Success:
		txn.Status = model.TransactionStatusSuccess
		txn.GatewayTransactionID = outcome.TransactionID
		txn.RawResponse = auditJSON(outcome.RawResponse)
	default:
		txn.Status = model.TransactionStatusFailed
		txn.ErrorMessage = outcome.ErrorMessage
		if txn.ErrorMessage == "" {
			txn.ErrorMessage = "Transaction failed"
		}
		txn.RawResponse = auditJSON(outcome.RawResponse)
	}
	return txn
}

// deriveStatus maps an attempt's outcome to the order's next status.
// A failed refund leaves the order as it was since the capture still stands.
func deriveStatus(order *model.PaymentOrder, action model.PaymentAction, amount decimal.Decimal, success bool) model.OrderStatus {
	switch action {
	case model.ActionPurchase:
		if success {
			return model.OrderStatusCaptured
		}
		return model.OrderStatusFailed
	case model.ActionAuthorize:
		if success {
			return model.OrderStatusAuthorized
		}
		return model.OrderStatusFailed
	case model.ActionCapture:
		if success {
			return model.OrderStatusCaptured
		}
		return model.OrderStatusFailed
	case model.ActionCancel:
		if success {
			return model.OrderStatusCancelled
		}
		return model.OrderStatusFailed
	case model.ActionRefund:
		if !success {
			return order.Status
		}
		if amount.LessThan(order.Amount) {
			return model.OrderStatusPartiallyRefunded
		}
		return model.OrderStatusRefunded
	}
	return order.Status
}

// persistenceFailure classifies a store error raised after the gateway call.
func (d *paymentDomain) persistenceFailure(ctx context.Context, order *model.PaymentOrder, action model.PaymentAction, txn *model.PaymentTransaction, op string, err error) error {
	fields := []zap.Field{
		zap.String("order_id", order.ID.String()),
		zap.String("action", action.String()),
		zap.String("transaction_status", string(txn.Status)),
		zap.String("gateway_transaction_id", txn.GatewayTransactionID),
		zap.Error(err),
	}

	// The gateway may have moved money; the local record does not show it.
	if txn.IsSuccess() || txn.TransportFailure {
		d.logger.Error("gateway effect not recorded, reconciliation required", append(fields, zap.String("op", op))...)
		d.publish(ctx, events.NewPaymentReconciliationRequiredEvent(model.ReconciliationItem{
			OrderID:              order.ID,
			Action:               action,
			Amount:               txn.Amount,
			GatewayName:          txn.GatewayName,
			GatewayTransactionID: txn.GatewayTransactionID,
			Reason:               fmt.Sprintf("%s: %v", op, err),
			OccurredAt:           d.now(),
		}))
		return fmt.Errorf("%w: order %s: %s: %w", ErrNeedsReconciliation, order.ID, op, err)
	}

	d.logger.Error("failed to record declined attempt", append(fields, zap.String("op", op))...)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func (d *paymentDomain) loadOrder(ctx context.Context, orderID uuid.UUID) (*model.PaymentOrder, error) {
	order, err := d.orderDB.FindByID(ctx, orderID)
	if errors.Is(err, outbound.ErrOrderNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find order: %w", ErrPersistence, err)
	}
	return order, nil
}

func (d *paymentDomain) lock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	unlock, err := d.locker.TryLock(ctx, orderID)
	if errors.Is(err, outbound.ErrLockNotAcquired) {
		return nil, fmt.Errorf("%w: order %s: %w", ErrOrderBusy, orderID, err)
	}
	if err != nil {
		d.logger.Error("order lock unavailable", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: lock order %s: %w", ErrPersistence, orderID, err)
	}
	return unlock, nil
}

func (d *paymentDomain) publish(ctx context.Context, event any) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("failed to publish payment event", zap.Error(err))
	}
}

func (d *paymentDomain) now() time.Time {
	return d.clock().UTC().Truncate(time.Microsecond)
}

// touch stamps UpdatedAt so it strictly increases even when the clock has not moved.
func (d *paymentDomain) touch(order *model.PaymentOrder) {
	now := d.now()
	if !now.After(order.UpdatedAt) {
		now = order.UpdatedAt.Add(time.Microsecond)
	}
	order.UpdatedAt = now
}

func (d *paymentDomain) startSpan(ctx context.Context, action model.PaymentAction, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("payment.action", action.String()),
		attribute.String("payment.gateway", d.gateway.Name()),
	)
	return d.tracer.Start(ctx, "payment."+strings.ToLower(action.String()), trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// validateAmount accepts positive amounts gateways can send without rounding.
func validateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return amount, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(maxAmountScale)) {
		return amount, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, maxAmountScale)
	}
	return amount.Round(maxAmountScale), nil
}

func normalizeCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if len(c) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return c, nil
}

// auditJSON keeps a gateway body as JSON, wrapping anything that is not.
func auditJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	wrapped, err := json.Marshal(map[string]string{"raw": string(raw)})
	if err != nil {
		return nil
	}
	return wrapped
}

func transportMarker(err error) []byte {
	marker, _ := json.Marshal(map[string]any{
		"transport_error": err.Error(),
		"timeout":         errors.Is(err, context.DeadlineExceeded),
	})
	return marker
}

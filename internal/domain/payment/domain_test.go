package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/adapter/outbound/memory"
	"github.com/kedarnelavelli/payment-service/internal/infra/events"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock Implementations ---

type MockPaymentGatewayPort struct {
	mock.Mock
}

func (m *MockPaymentGatewayPort) Name() string {
	return "mockpay"
}

func (m *MockPaymentGatewayPort) Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	args := m.Called(ctx, order)
	return outcomeArg(args)
}

func (m *MockPaymentGatewayPort) Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	args := m.Called(ctx, order)
	return outcomeArg(args)
}

func (m *MockPaymentGatewayPort) Capture(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	args := m.Called(ctx, order, refTxnID)
	return outcomeArg(args)
}

func (m *MockPaymentGatewayPort) Cancel(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	args := m.Called(ctx, order, refTxnID)
	return outcomeArg(args)
}

func (m *MockPaymentGatewayPort) Refund(ctx context.Context, order *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	args := m.Called(ctx, order, refTxnID, amount)
	return outcomeArg(args)
}

func outcomeArg(args mock.Arguments) (*model.GatewayOutcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GatewayOutcome), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if ev, ok := e.(events.Event); ok && ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type failingLedger struct {
	*memory.PaymentLedger
	appendErr error
}

func (l *failingLedger) Append(ctx context.Context, txn *model.PaymentTransaction) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	return l.PaymentLedger.Append(ctx, txn)
}

// contextLedger fails like a database driver once ctx is done.
type contextLedger struct {
	*memory.PaymentLedger
}

func (l *contextLedger) Append(ctx context.Context, txn *model.PaymentTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.PaymentLedger.Append(ctx, txn)
}

type contextOrderStore struct {
	*memory.PaymentOrderStore
	saves int
}

func (s *contextOrderStore) Save(ctx context.Context, order *model.PaymentOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.saves++
	return s.PaymentOrderStore.Save(ctx, order)
}

type brokenLocker struct {
	err error
}

func (l brokenLocker) TryLock(context.Context, uuid.UUID) (func(), error) {
	return nil, l.err
}

// --- Test helpers ---

type testEnv struct {
	domain    PaymentDomain
	orders    *memory.PaymentOrderStore
	ledger    *memory.PaymentLedger
	gateway   *MockPaymentGatewayPort
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		orders:    memory.NewPaymentOrderStore(),
		ledger:    memory.NewPaymentLedger(),
		gateway:   new(MockPaymentGatewayPort),
		publisher: &recordingPublisher{},
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	env.domain = NewPaymentDomain(env.orders, env.ledger, env.gateway, memory.NewOrderLocker(), env.publisher, cfg, zap.NewNop())
	return env
}

// seedOrder stores an order of amount 200 USD in status with the given successful ledger entries.
func (e *testEnv) seedOrder(t *testing.T, status model.OrderStatus, successes ...*model.PaymentTransaction) *model.PaymentOrder {
	t.Helper()
	now := time.Now().UTC().Add(-time.Minute)
	order := &model.PaymentOrder{
		ID:        uuid.New(),
		Amount:    decimal.NewFromInt(200),
		Currency:  "USD",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.orders.Save(context.Background(), order))
	for i, txn := range successes {
		txn.ID = uuid.New()
		txn.OrderID = order.ID
		txn.Status = model.TransactionStatusSuccess
		txn.Amount = order.Amount
		txn.CreatedAt = now.Add(time.Duration(i+1) * time.Second)
		require.NoError(t, e.ledger.Append(context.Background(), txn))
	}
	return order
}

func (e *testEnv) entries(t *testing.T, orderID uuid.UUID) []*model.PaymentTransaction {
	t.Helper()
	txns, err := e.ledger.ListByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return txns
}

func success(id string) *model.GatewayOutcome {
	return &model.GatewayOutcome{Success: true, TransactionID: id, RawResponse: []byte(`{"responseCode":"1"}`)}
}

func declined(msg string) *model.GatewayOutcome {
	return &model.GatewayOutcome{Success: false, ErrorMessage: msg, RawResponse: []byte(`{"responseCode":"2"}`)}
}

func entry(typ model.TransactionType, gatewayID string) *model.PaymentTransaction {
	return &model.PaymentTransaction{Type: typ, GatewayTransactionID: gatewayID}
}

func amountOf(v int64) interface{} {
	want := decimal.NewFromInt(v)
	return mock.MatchedBy(func(a decimal.Decimal) bool { return a.Equal(want) })
}

// --- Tests ---

func TestPaymentDomain_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("success captures the order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.Anything).Return(success("txn_1"), nil).Once()

		order, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "usd")

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCaptured, order.Status)
		assert.Equal(t, "USD", order.Currency)
		assert.True(t, order.Amount.Equal(decimal.NewFromInt(200)))

		stored, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCaptured, stored.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 1)
		assert.Equal(t, model.TransactionTypePurchase, txns[0].Type)
		assert.Equal(t, model.TransactionStatusSuccess, txns[0].Status)
		assert.Equal(t, "txn_1", txns[0].GatewayTransactionID)
		assert.Equal(t, "mockpay", txns[0].GatewayName)
		assert.JSONEq(t, `{"responseCode":"1"}`, string(txns[0].RawResponse))
		env.gateway.AssertExpectations(t)
	})

	t.Run("gateway starts from a fresh CREATED order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.MatchedBy(func(o *model.PaymentOrder) bool {
			return o.Status == model.OrderStatusCreated
		})).Return(success("txn_1"), nil).Once()

		_, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "USD")

		require.NoError(t, err)
		env.gateway.AssertExpectations(t)
	})

	t.Run("decline fails the order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.Anything).Return(declined("This transaction has been declined."), nil).Once()

		order, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "USD")

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		require.NotNil(t, order)
		assert.Equal(t, model.OrderStatusFailed, order.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 1)
		assert.Equal(t, model.TransactionStatusFailed, txns[0].Status)
		assert.Empty(t, txns[0].GatewayTransactionID)
		assert.Equal(t, "This transaction has been declined.", txns[0].ErrorMessage)
		assert.False(t, txns[0].TransportFailure)
	})

	t.Run("decline without a message gets a default", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.Anything).Return(&model.GatewayOutcome{}, nil).Once()

		order, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "USD")

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, "Transaction failed", env.entries(t, order.ID)[0].ErrorMessage)
	})

	t.Run("rejects non-positive amount before any gateway call", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.domain.Purchase(ctx, decimal.Zero, "USD")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = env.domain.Purchase(ctx, decimal.NewFromInt(-5), "USD")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		env.gateway.AssertNumberOfCalls(t, "Purchase", 0)
	})

	t.Run("rejects sub-cent amount before any gateway call", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.domain.Purchase(ctx, decimal.RequireFromString("10.001"), "USD")

		assert.ErrorIs(t, err, ErrInvalidAmount)
		env.gateway.AssertNumberOfCalls(t, "Purchase", 0)
	})

	t.Run("trailing zeros are not extra precision", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.Anything).Return(success("txn_1"), nil).Once()

		order, err := env.domain.Purchase(ctx, decimal.RequireFromString("10.500"), "USD")

		require.NoError(t, err)
		assert.Equal(t, "10.5", order.Amount.String())
		assert.Equal(t, "10.5", env.entries(t, order.ID)[0].Amount.String())
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		env := newTestEnv(t)

		for _, currency := range []string{"", "US", "USDT", "U5D"} {
			_, err := env.domain.Purchase(ctx, decimal.NewFromInt(10), currency)
			assert.ErrorIs(t, err, ErrInvalidCurrency, currency)
		}
		env.gateway.AssertNumberOfCalls(t, "Purchase", 0)
	})
}

func TestPaymentDomain_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("success authorizes the order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Authorize", mock.Anything, mock.Anything).Return(success("auth_1"), nil).Once()

		order, err := env.domain.Authorize(ctx, decimal.RequireFromString("49.99"), "EUR")

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusAuthorized, order.Status)
		txns := env.entries(t, order.ID)
		require.Len(t, txns, 1)
		assert.Equal(t, model.TransactionTypeAuthorize, txns[0].Type)
		assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("49.99")))
	})

	t.Run("decline fails the order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Authorize", mock.Anything, mock.Anything).Return(declined("card expired"), nil).Once()

		order, err := env.domain.Authorize(ctx, decimal.NewFromInt(200), "USD")

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, model.OrderStatusFailed, order.Status)
	})
}

func TestPaymentDomain_Capture(t *testing.T) {
	ctx := context.Background()

	t.Run("success captures with the authorization reference", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(success("cap_1"), nil).Once()

		result, err := env.domain.Capture(ctx, order.ID)

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCaptured, result.Status)
		txns := env.entries(t, order.ID)
		require.Len(t, txns, 2)
		assert.Equal(t, model.TransactionTypeCapture, txns[1].Type)
		assert.Equal(t, "cap_1", txns[1].GatewayTransactionID)
		env.gateway.AssertExpectations(t)
	})

	t.Run("decline fails the order", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(declined("authorization expired"), nil).Once()

		result, err := env.domain.Capture(ctx, order.ID)

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, model.OrderStatusFailed, result.Status)
		assert.Len(t, env.entries(t, order.ID), 2)
	})

	t.Run("created order is rejected before any gateway call", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCreated)

		_, err := env.domain.Capture(ctx, order.ID)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		env.gateway.AssertNumberOfCalls(t, "Capture", 0)
		assert.Empty(t, env.entries(t, order.ID))
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.domain.Capture(ctx, uuid.New())

		assert.ErrorIs(t, err, ErrOrderNotFound)
		env.gateway.AssertNumberOfCalls(t, "Capture", 0)
	})
}

func TestPaymentDomain_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success cancels the order", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		env.gateway.On("Cancel", mock.Anything, mock.Anything, "auth_1").Return(success("void_1"), nil).Once()

		result, err := env.domain.Cancel(ctx, order.ID)

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, result.Status)
		assert.Equal(t, model.TransactionTypeCancel, env.entries(t, order.ID)[1].Type)
	})

	t.Run("decline fails the order", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		env.gateway.On("Cancel", mock.Anything, mock.Anything, "auth_1").Return(declined("already settled"), nil).Once()

		result, err := env.domain.Cancel(ctx, order.ID)

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, model.OrderStatusFailed, result.Status)
	})

	t.Run("created order is rejected before any gateway call", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCreated)

		_, err := env.domain.Cancel(ctx, order.ID)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		env.gateway.AssertNumberOfCalls(t, "Cancel", 0)
	})

	t.Run("captured order cannot be cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))

		_, err := env.domain.Cancel(ctx, order.ID)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		env.gateway.AssertNumberOfCalls(t, "Cancel", 0)
	})
}

func TestPaymentDomain_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("partial refund", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(100)).Return(success("ref_1"), nil).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(100))

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPartiallyRefunded, result.Status)
		txns := env.entries(t, order.ID)
		require.Len(t, txns, 2)
		assert.Equal(t, model.TransactionTypeRefund, txns[1].Type)
		assert.True(t, txns[1].Amount.Equal(decimal.NewFromInt(100)))
		env.gateway.AssertExpectations(t)
	})

	t.Run("full refund", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(200)).Return(success("ref_1"), nil).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(200))

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusRefunded, result.Status)
	})

	t.Run("failed refund leaves the order captured", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(100)).Return(declined("refund window closed"), nil).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(100))

		assert.ErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, model.OrderStatusCaptured, result.Status)

		stored, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCaptured, stored.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 2)
		assert.Equal(t, model.TransactionTypeRefund, txns[1].Type)
		assert.Equal(t, model.TransactionStatusFailed, txns[1].Status)
	})

	t.Run("failed capture fails the order while failed refund does not", func(t *testing.T) {
		env := newTestEnv(t)
		authorized := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		captured := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(declined("no"), nil).Once()
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(50)).Return(declined("no"), nil).Once()

		afterCapture, _ := env.domain.Capture(ctx, authorized.ID)
		afterRefund, _ := env.domain.Refund(ctx, captured.ID, decimal.NewFromInt(50))

		assert.Equal(t, model.OrderStatusFailed, afterCapture.Status)
		assert.Equal(t, model.OrderStatusCaptured, afterRefund.Status)
	})

	t.Run("refund above the order amount counts as full refund", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(300)).Return(success("ref_1"), nil).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(300))

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusRefunded, result.Status)
	})

	t.Run("refund of a partially refunded order references the capture", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusPartiallyRefunded,
			entry(model.TransactionTypeAuthorize, "auth_1"),
			entry(model.TransactionTypeCapture, "cap_1"),
			entry(model.TransactionTypeRefund, "ref_1"),
		)
		env.gateway.On("Refund", mock.Anything, mock.Anything, "cap_1", amountOf(50)).Return(success("ref_2"), nil).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(50))

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPartiallyRefunded, result.Status)
		env.gateway.AssertExpectations(t)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))

		_, err := env.domain.Refund(ctx, order.ID, decimal.Zero)

		assert.ErrorIs(t, err, ErrInvalidAmount)
		env.gateway.AssertNumberOfCalls(t, "Refund", 0)
	})

	t.Run("rejects sub-cent amount", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))

		_, err := env.domain.Refund(ctx, order.ID, decimal.RequireFromString("199.999"))

		assert.ErrorIs(t, err, ErrInvalidAmount)
		env.gateway.AssertNumberOfCalls(t, "Refund", 0)
		assert.Len(t, env.entries(t, order.ID), 1)

		stored, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCaptured, stored.Status)
	})

	t.Run("authorized order cannot be refunded", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))

		_, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, ErrInvalidTransition)
		env.gateway.AssertNumberOfCalls(t, "Refund", 0)
	})
}

func TestPaymentDomain_MissingReferenceTransaction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		status model.OrderStatus
		call   func(PaymentDomain, uuid.UUID) error
		method string
	}{
		{"capture", model.OrderStatusAuthorized, func(d PaymentDomain, id uuid.UUID) error {
			_, err := d.Capture(ctx, id)
			return err
		}, "Capture"},
		{"cancel", model.OrderStatusAuthorized, func(d PaymentDomain, id uuid.UUID) error {
			_, err := d.Cancel(ctx, id)
			return err
		}, "Cancel"},
		{"refund", model.OrderStatusCaptured, func(d PaymentDomain, id uuid.UUID) error {
			_, err := d.Refund(ctx, id, decimal.NewFromInt(10))
			return err
		}, "Refund"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			order := env.seedOrder(t, tt.status)

			err := tt.call(env.domain, order.ID)

			assert.ErrorIs(t, err, ErrMissingReferenceTransaction)
			env.gateway.AssertNumberOfCalls(t, tt.method, 0)
			assert.Empty(t, env.entries(t, order.ID))
		})
	}

	t.Run("failed entries are not a reference", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized)
		require.NoError(t, env.ledger.Append(ctx, &model.PaymentTransaction{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Type:      model.TransactionTypeAuthorize,
			Status:    model.TransactionStatusFailed,
			Amount:    order.Amount,
			CreatedAt: time.Now(),
		}))

		_, err := env.domain.Capture(ctx, order.ID)

		assert.ErrorIs(t, err, ErrMissingReferenceTransaction)
	})
}

func TestPaymentDomain_GatewayTransportFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("transport error fails the order and marks the entry", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(nil, errors.New("connection reset by peer")).Once()

		result, err := env.domain.Capture(ctx, order.ID)

		assert.ErrorIs(t, err, ErrGatewayTransport)
		assert.NotErrorIs(t, err, ErrGatewayDeclined)
		assert.Equal(t, model.OrderStatusFailed, result.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 2)
		assert.True(t, txns[1].TransportFailure)
		assert.Equal(t, model.TransactionStatusFailed, txns[1].Status)
		assert.Contains(t, txns[1].ErrorMessage, "connection reset")
	})

	t.Run("timeout is bounded and recorded", func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) { c.GatewayTimeout = 20 * time.Millisecond })
		env.gateway.On("Authorize", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded).Once()

		start := time.Now()
		order, err := env.domain.Authorize(ctx, decimal.NewFromInt(200), "USD")

		assert.Less(t, time.Since(start), 5*time.Second)
		assert.ErrorIs(t, err, ErrGatewayTransport)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotNil(t, order)
		assert.Equal(t, model.OrderStatusFailed, order.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 1)
		assert.True(t, txns[0].TransportFailure)

		var marker map[string]any
		require.NoError(t, json.Unmarshal(txns[0].RawResponse, &marker))
		assert.Equal(t, true, marker["timeout"])
	})

	t.Run("transport error on refund leaves status unchanged", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured, entry(model.TransactionTypePurchase, "txn_1"))
		env.gateway.On("Refund", mock.Anything, mock.Anything, "txn_1", amountOf(100)).Return(nil, errors.New("dial tcp: i/o timeout")).Once()

		result, err := env.domain.Refund(ctx, order.ID, decimal.NewFromInt(100))

		assert.ErrorIs(t, err, ErrGatewayTransport)
		assert.Equal(t, model.OrderStatusCaptured, result.Status)
	})

	t.Run("open circuit is not an unknown outcome", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("Purchase", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: mockpay circuit open", outbound.ErrGatewayUnavailable)).Once()

		order, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "USD")

		assert.ErrorIs(t, err, ErrGatewayTransport)
		require.NotNil(t, order)
		assert.Equal(t, model.OrderStatusFailed, order.Status)

		txns := env.entries(t, order.ID)
		require.Len(t, txns, 1)
		assert.False(t, txns[0].TransportFailure)
	})
}

func TestPaymentDomain_LedgerIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.gateway.On("Authorize", mock.Anything, mock.Anything).Return(success("auth_1"), nil).Once()
	env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(success("cap_1"), nil).Once()
	env.gateway.On("Refund", mock.Anything, mock.Anything, "cap_1", amountOf(50)).Return(declined("try later"), nil).Once()
	env.gateway.On("Refund", mock.Anything, mock.Anything, "cap_1", amountOf(60)).Return(success("ref_1"), nil).Once()

	order, err := env.domain.Authorize(ctx, decimal.NewFromInt(200), "USD")
	require.NoError(t, err)
	first := env.entries(t, order.ID)
	require.Len(t, first, 1)

	_, err = env.domain.Capture(ctx, order.ID)
	require.NoError(t, err)
	_, err = env.domain.Refund(ctx, order.ID, decimal.NewFromInt(50))
	require.ErrorIs(t, err, ErrGatewayDeclined)
	_, err = env.domain.Refund(ctx, order.ID, decimal.NewFromInt(60))
	require.NoError(t, err)

	all := env.entries(t, order.ID)
	require.Len(t, all, 4)
	assert.Equal(t, first[0], all[0])

	types := []model.TransactionType{all[0].Type, all[1].Type, all[2].Type, all[3].Type}
	assert.Equal(t, []model.TransactionType{
		model.TransactionTypeAuthorize,
		model.TransactionTypeCapture,
		model.TransactionTypeRefund,
		model.TransactionTypeRefund,
	}, types)
	assert.Equal(t, model.TransactionStatusFailed, all[2].Status)
	assert.Equal(t, model.TransactionStatusSuccess, all[3].Status)

	// No gateway call, no entry.
	_, err = env.domain.Cancel(ctx, order.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, env.entries(t, order.ID), 4)
}

func TestPaymentDomain_ConcurrentCapture(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))

	started := make(chan struct{})
	release := make(chan struct{})
	env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(success("cap_1"), nil).Once()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = env.domain.Capture(ctx, order.ID)
	}()

	<-started
	_, secondErr := env.domain.Capture(ctx, order.ID)
	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, ErrOrderBusy)
	env.gateway.AssertNumberOfCalls(t, "Capture", 1)

	var captures int
	for _, txn := range env.entries(t, order.ID) {
		if txn.Type == model.TransactionTypeCapture && txn.IsSuccess() {
			captures++
		}
	}
	assert.Equal(t, 1, captures)

	stored, err := env.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCaptured, stored.Status)
}

func TestPaymentDomain_PersistenceFailure(t *testing.T) {
	ctx := context.Background()

	newEnv := func(t *testing.T) (*testEnv, *failingLedger) {
		env := newTestEnv(t)
		ledger := &failingLedger{PaymentLedger: env.ledger}
		env.domain = NewPaymentDomain(env.orders, ledger, env.gateway, memory.NewOrderLocker(), env.publisher, nil, zap.NewNop())
		return env, ledger
	}

	t.Run("unrecorded gateway success needs reconciliation", func(t *testing.T) {
		env, ledger := newEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		ledger.appendErr = errors.New("connection refused")
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(success("cap_1"), nil).Once()

		result, err := env.domain.Capture(ctx, order.ID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNeedsReconciliation)
		assert.NotErrorIs(t, err, ErrPersistence)

		stored, findErr := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, findErr)
		assert.Equal(t, model.OrderStatusAuthorized, stored.Status)

		recon := env.publisher.ofType(events.PaymentReconciliationRequiredType)
		require.Len(t, recon, 1)
		item := recon[0].(*events.PaymentReconciliationRequiredEvent).Item
		assert.Equal(t, order.ID, item.OrderID)
		assert.Equal(t, "cap_1", item.GatewayTransactionID)
	})

	t.Run("unrecorded decline is a plain persistence failure", func(t *testing.T) {
		env, ledger := newEnv(t)
		order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
		ledger.appendErr = errors.New("connection refused")
		env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(declined("no"), nil).Once()

		_, err := env.domain.Capture(ctx, order.ID)

		assert.ErrorIs(t, err, ErrPersistence)
		assert.NotErrorIs(t, err, ErrNeedsReconciliation)
		assert.Empty(t, env.publisher.ofType(events.PaymentReconciliationRequiredType))
	})
}

func TestPaymentDomain_UpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env := newTestEnv(t, func(c *Config) { c.Clock = func() time.Time { return frozen } })
	env.gateway.On("Authorize", mock.Anything, mock.Anything).Return(success("auth_1"), nil).Once()
	env.gateway.On("Capture", mock.Anything, mock.Anything, "auth_1").Return(success("cap_1"), nil).Once()

	order, err := env.domain.Authorize(ctx, decimal.NewFromInt(200), "USD")
	require.NoError(t, err)
	assert.True(t, order.UpdatedAt.After(order.CreatedAt))
	authorizedAt := order.UpdatedAt

	captured, err := env.domain.Capture(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, captured.UpdatedAt.After(authorizedAt))
	assert.Equal(t, frozen, captured.CreatedAt)
}

func TestPaymentDomain_PublishesStatusChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.gateway.On("Purchase", mock.Anything, mock.Anything).Return(success("txn_1"), nil).Once()

	order, err := env.domain.Purchase(ctx, decimal.NewFromInt(200), "USD")
	require.NoError(t, err)

	published := env.publisher.ofType(events.PaymentStatusChangedType)
	require.Len(t, published, 1)
	event := published[0].(*events.PaymentStatusChangedEvent)
	assert.Equal(t, order.ID, event.OrderID())
	assert.Equal(t, model.OrderStatusCreated, event.FromStatus)
	assert.Equal(t, model.OrderStatusCaptured, event.ToStatus)
	assert.Equal(t, "txn_1", event.GatewayTransactionID)
	assert.True(t, event.Success)
}

func TestPaymentDomain_ListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.domain.ListTransactions(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("returns entries oldest first", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, model.OrderStatusCaptured,
			entry(model.TransactionTypeAuthorize, "auth_1"),
			entry(model.TransactionTypeCapture, "cap_1"),
		)

		txns, err := env.domain.ListTransactions(ctx, order.ID)

		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "auth_1", txns[0].GatewayTransactionID)
		assert.Equal(t, "cap_1", txns[1].GatewayTransactionID)
	})
}

func TestPaymentDomain_OrderLockUnavailable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))

	locker := memory.NewOrderLocker()
	unlock, err := locker.TryLock(ctx, order.ID)
	require.NoError(t, err)
	defer unlock()

	d := NewPaymentDomain(env.orders, env.ledger, env.gateway, locker, nil, nil, zap.NewNop())
	_, err = d.Capture(ctx, order.ID)

	assert.ErrorIs(t, err, ErrOrderBusy)
	assert.ErrorIs(t, err, outbound.ErrLockNotAcquired)
	env.gateway.AssertNumberOfCalls(t, "Capture", 0)
}

func TestPaymentDomain_LockBackendFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	orders := &contextOrderStore{PaymentOrderStore: env.orders}
	d := NewPaymentDomain(orders, env.ledger, env.gateway, brokenLocker{err: errors.New("redis: connection refused")}, nil, nil, zap.NewNop())

	_, err := d.Purchase(ctx, decimal.NewFromInt(200), "USD")

	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrOrderBusy)
	assert.Zero(t, orders.saves)
	env.gateway.AssertNumberOfCalls(t, "Purchase", 0)

	order := env.seedOrder(t, model.OrderStatusAuthorized, entry(model.TransactionTypeAuthorize, "auth_1"))
	_, err = d.Capture(ctx, order.ID)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrOrderBusy)
}

func TestPaymentDomain_CallerGoneDuringGatewayCall(t *testing.T) {
	env := newTestEnv(t)
	ledger := &contextLedger{PaymentLedger: env.ledger}
	orders := &contextOrderStore{PaymentOrderStore: env.orders}
	d := NewPaymentDomain(orders, ledger, env.gateway, memory.NewOrderLocker(), env.publisher, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gatewayCtxErr error
	env.gateway.On("Purchase", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cancel()
			gatewayCtxErr = args.Get(0).(context.Context).Err()
		}).
		Return(success("txn_1"), nil).Once()

	order, err := d.Purchase(ctx, decimal.NewFromInt(200), "USD")

	require.NoError(t, err)
	assert.NoError(t, gatewayCtxErr)
	assert.Equal(t, model.OrderStatusCaptured, order.Status)

	txns := env.entries(t, order.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, "txn_1", txns[0].GatewayTransactionID)

	stored, err := env.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCaptured, stored.Status)
	assert.Empty(t, env.publisher.ofType(events.PaymentReconciliationRequiredType))
}

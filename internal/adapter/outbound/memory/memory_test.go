package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentOrderStore(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentOrderStore()

	t.Run("not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, outbound.ErrOrderNotFound)
	})

	t.Run("save requires id", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, &model.PaymentOrder{}))
		assert.Error(t, store.Save(ctx, nil))
	})

	t.Run("stores copies", func(t *testing.T) {
		order := &model.PaymentOrder{
			ID:       uuid.New(),
			Amount:   decimal.NewFromInt(10),
			Currency: "USD",
			Status:   model.OrderStatusCreated,
		}
		require.NoError(t, store.Save(ctx, order))
		order.Status = model.OrderStatusFailed

		found, err := store.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCreated, found.Status)

		found.Status = model.OrderStatusCaptured
		again, err := store.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCreated, again.Status)
	})
}

func TestPaymentLedger(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	newEntry := func(typ model.TransactionType, status model.TransactionStatus, gatewayID string) *model.PaymentTransaction {
		return &model.PaymentTransaction{
			ID:                   uuid.New(),
			OrderID:              orderID,
			Type:                 typ,
			Status:               status,
			Amount:               decimal.NewFromInt(10),
			GatewayTransactionID: gatewayID,
			RawResponse:          []byte(`{"ok":true}`),
			CreatedAt:            time.Now(),
		}
	}

	t.Run("empty ledger", func(t *testing.T) {
		ledger := NewPaymentLedger()

		_, err := ledger.LastSuccessfulTransactionID(ctx, orderID)
		assert.ErrorIs(t, err, outbound.ErrLedgerEntryNotFound)

		txns, err := ledger.ListByOrderID(ctx, orderID)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("rejects missing and duplicate ids", func(t *testing.T) {
		ledger := NewPaymentLedger()
		assert.Error(t, ledger.Append(ctx, &model.PaymentTransaction{OrderID: orderID}))

		txn := newEntry(model.TransactionTypeAuthorize, model.TransactionStatusSuccess, "a")
		require.NoError(t, ledger.Append(ctx, txn))
		assert.Error(t, ledger.Append(ctx, txn))
	})

	t.Run("last successful respects order and type filter", func(t *testing.T) {
		ledger := NewPaymentLedger()
		require.NoError(t, ledger.Append(ctx, newEntry(model.TransactionTypeAuthorize, model.TransactionStatusSuccess, "auth_1")))
		require.NoError(t, ledger.Append(ctx, newEntry(model.TransactionTypeCapture, model.TransactionStatusSuccess, "cap_1")))
		require.NoError(t, ledger.Append(ctx, newEntry(model.TransactionTypeRefund, model.TransactionStatusSuccess, "ref_1")))
		require.NoError(t, ledger.Append(ctx, newEntry(model.TransactionTypeRefund, model.TransactionStatusFailed, "")))

		id, err := ledger.LastSuccessfulTransactionID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, "ref_1", id)

		id, err = ledger.LastSuccessfulTransactionID(ctx, orderID, model.TransactionTypePurchase, model.TransactionTypeCapture)
		require.NoError(t, err)
		assert.Equal(t, "cap_1", id)

		_, err = ledger.LastSuccessfulTransactionID(ctx, orderID, model.TransactionTypeCancel)
		assert.ErrorIs(t, err, outbound.ErrLedgerEntryNotFound)
	})

	t.Run("entries cannot be mutated through returned values", func(t *testing.T) {
		ledger := NewPaymentLedger()
		txn := newEntry(model.TransactionTypePurchase, model.TransactionStatusSuccess, "txn_1")
		require.NoError(t, ledger.Append(ctx, txn))
		txn.RawResponse[0] = 'X'
		txn.Status = model.TransactionStatusFailed

		txns, err := ledger.ListByOrderID(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, model.TransactionStatusSuccess, txns[0].Status)
		assert.JSONEq(t, `{"ok":true}`, string(txns[0].RawResponse))

		txns[0].GatewayTransactionID = "changed"
		again, err := ledger.ListByOrderID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, "txn_1", again[0].GatewayTransactionID)
	})
}

func TestOrderLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewOrderLocker()
	orderID := uuid.New()

	unlock, err := locker.TryLock(ctx, orderID)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, orderID)
	assert.ErrorIs(t, err, outbound.ErrLockNotAcquired)

	other, err := locker.TryLock(ctx, uuid.New())
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	relock, err := locker.TryLock(ctx, orderID)
	require.NoError(t, err)
	relock()
}

func TestReconciliationQueue(t *testing.T) {
	q := NewReconciliationQueue()
	item := &model.ReconciliationItem{OrderID: uuid.New(), Action: model.ActionCapture, Reason: "save order: timeout"}

	require.NoError(t, q.Enqueue(context.Background(), item))
	item.Reason = "changed"

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "save order: timeout", items[0].Reason)
}

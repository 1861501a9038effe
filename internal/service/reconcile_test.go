package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileSettlementDebitsStockOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 2)

	body := notificationBody(OrderRef(placed.orderID), "settlement", "txn-1", placed.total)
	require.NoError(t, svc.HandleNotification(ctx, body))

	order := env.order(t, placed.orderID)
	assert.Equal(t, model.PaymentSuccess, order.Status)
	assert.Equal(t, model.ShippingProcessing, order.ShippingStatus)
	assert.Equal(t, "bank_transfer", order.PaymentType)
	assert.Equal(t, "txn-1", order.TransactionID)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, int64(3), env.productStock(t, placed.productID))

	// the provider retries; the replay must not debit again
	require.NoError(t, svc.HandleNotification(ctx, body))
	assert.Equal(t, int64(3), env.productStock(t, placed.productID))
	assert.Equal(t, model.PaymentSuccess, env.order(t, placed.orderID).Status)

	// every delivery is audited, duplicates included
	notifications, total, err := env.notificationRepo.List(ctx, placed.orderID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, notifications, 2)
}

func TestReconcilePendingThenSettlement(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 1)

	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "pending", "txn-1", placed.total)))
	assert.Equal(t, model.PaymentPending, env.order(t, placed.orderID).Status)
	assert.Equal(t, int64(5), env.productStock(t, placed.productID))

	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "settlement", "txn-1", placed.total)))
	assert.Equal(t, model.PaymentSuccess, env.order(t, placed.orderID).Status)
	assert.Equal(t, int64(4), env.productStock(t, placed.productID))
}

func TestReconcileFailureStatusesSkipStock(t *testing.T) {
	for providerStatus, want := range map[string]model.PaymentStatus{
		"deny":    model.PaymentFailed,
		"failure": model.PaymentFailed,
		"expire":  model.PaymentExpired,
		"cancel":  model.PaymentCancel,
	} {
		t.Run(providerStatus, func(t *testing.T) {
			env := newTestEnv(t)
			svc := env.reconcileService()
			ctx := context.Background()

			placed := env.placeOrder(t, 1000, 5, 2)

			require.NoError(t, svc.HandleNotification(ctx,
				notificationBody(OrderRef(placed.orderID), providerStatus, "txn-1", placed.total)))

			order := env.order(t, placed.orderID)
			assert.Equal(t, want, order.Status)
			assert.Nil(t, order.PaidAt)
			assert.Equal(t, int64(5), env.productStock(t, placed.productID))
		})
	}
}

func TestReconcileUnknownProviderStatusMapsToPending(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 1)

	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "fraud_review", "txn-1", placed.total)))

	assert.Equal(t, model.PaymentPending, env.order(t, placed.orderID).Status)
	assert.Equal(t, int64(5), env.productStock(t, placed.productID))
}

func TestReconcileLateNotificationAfterTerminal(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 2)

	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "settlement", "txn-1", placed.total)))

	// an out-of-order cancel arriving after settlement is ignored
	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "cancel", "txn-1", placed.total)))

	order := env.order(t, placed.orderID)
	assert.Equal(t, model.PaymentSuccess, order.Status)
	assert.Equal(t, model.ShippingProcessing, order.ShippingStatus)
	assert.Equal(t, int64(3), env.productStock(t, placed.productID))
}

func TestReconcileUnknownOrderIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	body := notificationBody(OrderRef(uuid.NewString()), "settlement", "txn-1", 1000)
	require.NoError(t, svc.HandleNotification(ctx, body))

	// still audited
	notifications, total, err := env.notificationRepo.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, notifications, 1)
}

func TestReconcileResolvesUnprefixedOrderRef(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 1)

	// some provider flows echo the bare order id back
	require.NoError(t, svc.HandleNotification(ctx,
		notificationBody(placed.orderID, "settlement", "txn-1", placed.total)))

	assert.Equal(t, model.PaymentSuccess, env.order(t, placed.orderID).Status)
}

func TestReconcileInvalidPayloadStillAudited(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	// parses, but transaction_id is missing
	err := svc.HandleNotification(ctx,
		[]byte(`{"order_id":"ORDER-abc","transaction_status":"settlement","payment_type":"qris","gross_amount":"1000.00"}`))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	notifications, total, listErr := env.notificationRepo.List(ctx, "abc", 1, 10)
	require.NoError(t, listErr)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "settlement", notifications[0].Status)

	// malformed JSON: audited with the raw body only
	err = svc.HandleNotification(ctx, []byte(`not json`))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	var all []*model.PaymentNotification
	require.NoError(t, env.db.Find(&all).Error)
	require.Len(t, all, 2)
}

func TestReconcileInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 2)

	// stock drained between checkout and payment
	require.NoError(t, env.db.Model(&model.Product{}).
		Where("product_id = ?", placed.productID).
		Update("stock_quantity", 1).Error)

	err := svc.HandleNotification(ctx,
		notificationBody(OrderRef(placed.orderID), "settlement", "txn-1", placed.total))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInconsistency))

	// everything rolled back: order still open, stock never negative
	order := env.order(t, placed.orderID)
	assert.Equal(t, model.PaymentPending, order.Status)
	assert.Equal(t, int64(1), env.productStock(t, placed.productID))
}

func TestManualApplyStatusSharesDebitGuard(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 2)

	order, err := svc.ApplyStatus(ctx, placed.orderID, model.PaymentSuccess, "manual", "txn-manual")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, order.Status)
	assert.Equal(t, model.ShippingProcessing, order.ShippingStatus)
	assert.Equal(t, int64(3), env.productStock(t, placed.productID))

	// second manual flip hits the terminal guard instead of re-debiting
	_, err = svc.ApplyStatus(ctx, placed.orderID, model.PaymentSuccess, "manual", "txn-manual")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Equal(t, int64(3), env.productStock(t, placed.productID))
}

func TestManualApplyStatusValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService()
	ctx := context.Background()

	_, err := svc.ApplyStatus(ctx, "order-x", model.PaymentStatus("paid"), "", "")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.ApplyStatus(ctx, uuid.NewString(), model.PaymentFailed, "", "")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

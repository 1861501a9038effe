package service

import (
	"context"
	"testing"

	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deliveredOrder walks an order through payment and shipping so it is
// reviewable, returning its single order item.
func (e *testEnv) deliveredOrder(t *testing.T) (placedOrder, *model.OrderItem) {
	t.Helper()
	ctx := context.Background()

	placed := e.placeOrder(t, 1000, 5, 2)
	e.settle(t, placed)

	seller := sellerIdentity(placed.sellerID)
	svc := e.orderService()
	_, err := svc.UpdateShippingStatus(ctx, seller, placed.orderID, model.ShippingShipped)
	require.NoError(t, err)
	_, err = svc.UpdateShippingStatus(ctx, seller, placed.orderID, model.ShippingDelivered)
	require.NoError(t, err)

	var item model.OrderItem
	require.NoError(t, e.db.Where("order_id = ?", placed.orderID).First(&item).Error)
	return placed, &item
}

func TestReviewCreate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	placed, item := env.deliveredOrder(t)

	review, err := svc.Create(ctx, placed.userID, item.OrderItemID, 4, "solid product")
	require.NoError(t, err)
	assert.Equal(t, placed.sellerID, review.SellerID)
	assert.Equal(t, placed.productID, review.ProductID)

	// the store rating is re-averaged from all reviews
	seller, err := env.sellerRepo.FindByID(ctx, placed.sellerID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, seller.StoreRating, 0.001)
}

func TestReviewRequiresDelivery(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	placed := env.placeOrder(t, 1000, 5, 1)
	env.settle(t, placed)

	var item model.OrderItem
	require.NoError(t, env.db.Where("order_id = ?", placed.orderID).First(&item).Error)

	// paid but only processing: not reviewable yet
	_, err := svc.Create(ctx, placed.userID, item.OrderItemID, 5, "")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestReviewOncePerOrderItem(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	placed, item := env.deliveredOrder(t)

	_, err := svc.Create(ctx, placed.userID, item.OrderItemID, 5, "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, placed.userID, item.OrderItemID, 1, "changed my mind")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestReviewOwnershipAndValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	placed, item := env.deliveredOrder(t)

	_, err := svc.Create(ctx, "someone-else", item.OrderItemID, 5, "")
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = svc.Create(ctx, placed.userID, item.OrderItemID, 0, "")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Create(ctx, placed.userID, item.OrderItemID, 6, "")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Create(ctx, placed.userID, "missing-item", 5, "")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/client"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileService idempotently applies inbound payment notifications to
// orders. Webhook delivery is at-least-once and unordered; replays and
// late terminal events must be no-ops with respect to stock.
type ReconcileService interface {
	HandleNotification(ctx context.Context, rawBody []byte) error
	// ApplyStatus is the seller-facing manual override. It shares the
	// webhook apply path so the debit-once contract holds for it too.
	ApplyStatus(ctx context.Context, orderID string, status model.PaymentStatus, paymentType, transactionID string) (*model.Order, error)
}

type statusMapping struct {
	status         model.PaymentStatus
	shippingStatus model.ShippingStatus
}

// providerStatusMap resolves the gateway's transaction_status strings.
// Unknown values resolve to pending so an unrecognized code can never
// crash the webhook endpoint.
var providerStatusMap = map[string]statusMapping{
	"capture":    {model.PaymentSuccess, model.ShippingProcessing},
	"settlement": {model.PaymentSuccess, model.ShippingProcessing},
	"pending":    {model.PaymentPending, model.ShippingNone},
	"deny":       {model.PaymentFailed, model.ShippingNone},
	"expire":     {model.PaymentExpired, model.ShippingNone},
	"cancel":     {model.PaymentCancel, model.ShippingNone},
	"failure":    {model.PaymentFailed, model.ShippingNone},
}

func resolveProviderStatus(providerStatus string) statusMapping {
	if mapped, ok := providerStatusMap[providerStatus]; ok {
		return mapped
	}
	return statusMapping{model.PaymentPending, model.ShippingNone}
}

type reconcileServiceImpl struct {
	db               *gorm.DB
	gateway          client.MidtransClient
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	notificationRepo repository.NotificationRepository
	logger           *zap.Logger
}

func NewReconcileService(
	db *gorm.DB,
	gateway client.MidtransClient,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	notificationRepo repository.NotificationRepository,
	logger *zap.Logger,
) ReconcileService {
	return &reconcileServiceImpl{
		db:               db,
		gateway:          gateway,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *reconcileServiceImpl) HandleNotification(ctx context.Context, rawBody []byte) error {
	payload, decodeErr := s.gateway.DecodeNotification(rawBody)

	// The audit row is written unconditionally, before any processing and
	// regardless of its outcome.
	audit := &model.PaymentNotification{RawPayload: string(rawBody)}
	if payload != nil {
		audit.OrderID = StripOrderRef(payload.OrderID)
		audit.TransactionID = payload.TransactionID
		audit.Status = payload.TransactionStatus
		audit.PaymentType = payload.PaymentType
		audit.GrossAmount = payload.GrossAmount.String()
	}
	if err := s.notificationRepo.Append(ctx, audit); err != nil {
		s.logger.Error("append payment notification", zap.Error(err))
	}

	if decodeErr != nil {
		return apperror.Wrap(apperror.KindValidation, "invalid notification payload", decodeErr)
	}

	mapped := resolveProviderStatus(payload.TransactionStatus)

	order, err := s.findOrder(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("resolve order: %w", err)
	}
	if order == nil {
		// a retried webhook for an order we no longer know about must not
		// error the provider's retry loop
		s.logger.Warn("notification for unknown order",
			zap.String("order_id", payload.OrderID),
			zap.String("transaction_status", payload.TransactionStatus))
		return nil
	}

	applied, err := s.apply(ctx, order, mapped, payload.PaymentType, payload.TransactionID)
	if err != nil {
		return err
	}

	s.logger.Info("payment notification reconciled",
		zap.String("order_id", order.OrderID),
		zap.String("transaction_status", payload.TransactionStatus),
		zap.String("status", string(mapped.status)),
		zap.Bool("applied", applied))
	return nil
}

func (s *reconcileServiceImpl) ApplyStatus(ctx context.Context, orderID string, status model.PaymentStatus, paymentType, transactionID string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid payment status")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	mapped := statusMapping{status: status, shippingStatus: model.ShippingNone}
	if status == model.PaymentSuccess {
		mapped.shippingStatus = model.ShippingProcessing
	}

	applied, err := s.apply(ctx, order, mapped, paymentType, transactionID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperror.Conflict(
			fmt.Sprintf("payment status is already terminal: %s", order.Status))
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// apply performs the transactional order update plus, on success, the
// stock debit. The status flip is conditional on the order still being
// open, which is what makes a replayed success a no-op: only the
// pending→success transition debits.
func (s *reconcileServiceImpl) apply(ctx context.Context, order *model.Order, mapped statusMapping, paymentType, transactionID string) (bool, error) {
	var paidAt *time.Time
	if mapped.status == model.PaymentSuccess {
		now := time.Now()
		paidAt = &now
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.ApplyStatus(ctx, tx, order.OrderID,
			mapped.status, mapped.shippingStatus, paymentType, transactionID, paidAt)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !ok {
			// already terminal: replayed or out-of-order notification
			return nil
		}
		applied = true

		if mapped.status != model.PaymentSuccess {
			return nil
		}

		items, err := s.orderRepo.GetOrderItems(ctx, tx, order.OrderID)
		if err != nil {
			return fmt.Errorf("get order items: %w", err)
		}

		for _, item := range items {
			ok, err := s.productRepo.DebitStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("debit stock: %w", err)
			}
			if !ok {
				// payment succeeded at the gateway but cannot be finalized
				// locally; requires operator reconciliation
				return apperror.Inconsistency(
					fmt.Sprintf("insufficient stock for product: %s", item.ProductName), nil)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

// findOrder resolves the provider-side order reference, which may carry
// the ORDER- prefix. A missing order is not an error.
func (s *reconcileServiceImpl) findOrder(ctx context.Context, orderRef string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderRef)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	order, err = s.orderRepo.FindByID(ctx, StripOrderRef(orderRef))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

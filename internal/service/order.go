package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ordersPerPage = 10

type OrderService interface {
	List(ctx context.Context, identity dto.Identity, filter dto.OrderListFilter, page int) (*dto.OrderList, error)
	Get(ctx context.Context, identity dto.Identity, orderID string) (*dto.OrderView, error)
	UpdateShippingStatus(ctx context.Context, identity dto.Identity, orderID string, next model.ShippingStatus) (*dto.ShippingUpdateResult, error)
	UpdateStatus(ctx context.Context, identity dto.Identity, orderID string, status model.PaymentStatus) (*dto.StatusUpdateResult, error)
	NotificationHistory(ctx context.Context, orderID string, page int) ([]*model.PaymentNotification, int64, error)
}

type orderServiceImpl struct {
	db               *gorm.DB
	orderRepo        repository.OrderRepository
	notificationRepo repository.NotificationRepository
	salesService     SalesService
	reconcileService ReconcileService
	logger           *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	notificationRepo repository.NotificationRepository,
	salesService SalesService,
	reconcileService ReconcileService,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:               db,
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
		salesService:     salesService,
		reconcileService: reconcileService,
		logger:           logger,
	}
}

func (s *orderServiceImpl) List(ctx context.Context, identity dto.Identity, filter dto.OrderListFilter, page int) (*dto.OrderList, error) {
	if page < 1 {
		page = 1
	}

	repoFilter := repository.OrderFilter{}
	if identity.IsSeller() {
		repoFilter.SellerID = identity.SellerID
		repoFilter.Status = model.PaymentStatus(filter.Status)
		repoFilter.ShippingStatus = model.ShippingStatus(filter.ShippingStatus)
		repoFilter.OrderID = filter.OrderID
		if from, err := time.Parse("2006-01-02", filter.DateFrom); err == nil {
			repoFilter.DateFrom = &from
		}
		if to, err := time.Parse("2006-01-02", filter.DateTo); err == nil {
			end := to.Add(24*time.Hour - time.Nanosecond)
			repoFilter.DateTo = &end
		}
	} else {
		repoFilter.UserID = identity.UserID
	}

	orders, total, err := s.orderRepo.List(ctx, repoFilter, page, ordersPerPage)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	views := make([]dto.OrderView, len(orders))
	for i, order := range orders {
		views[i] = orderView(order)
	}

	return &dto.OrderList{
		Orders: views,
		Pagination: dto.Pagination{
			CurrentPage: page,
			PerPage:     ordersPerPage,
			Total:       total,
		},
	}, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, identity dto.Identity, orderID string) (*dto.OrderView, error) {
	order, err := s.ownedOrder(ctx, identity, orderID)
	if err != nil {
		return nil, err
	}

	view := orderView(order)
	return &view, nil
}

func (s *orderServiceImpl) UpdateShippingStatus(ctx context.Context, identity dto.Identity, orderID string, next model.ShippingStatus) (*dto.ShippingUpdateResult, error) {
	if !identity.IsSeller() {
		return nil, apperror.Unauthorized("only seller can update shipping status")
	}

	order, err := s.ownedOrder(ctx, identity, orderID)
	if err != nil {
		return nil, err
	}

	current := order.ShippingStatus
	if !current.CanTransitionTo(next) {
		return nil, apperror.Conflict(
			fmt.Sprintf("cannot change shipping status from %q to %q", current, next)).
			WithDetail("valid_next_statuses", current.AllowedNext())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateShippingStatus(ctx, tx, orderID, next); err != nil {
			return fmt.Errorf("update shipping status: %w", err)
		}

		if next == model.ShippingDelivered {
			productIDs := make([]string, len(order.Items))
			for i, item := range order.Items {
				productIDs[i] = item.ProductID
			}
			// rollup failures must not block the delivery update
			if err := s.salesService.Recompute(ctx, tx, order.SellerID, productIDs); err != nil {
				s.logger.Error("recompute sales rollups",
					zap.String("order_id", orderID),
					zap.String("seller_id", order.SellerID),
					zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.ShippingUpdateResult{
		OrderID:           orderID,
		PreviousStatus:    current,
		CurrentStatus:     next,
		ValidNextStatuses: next.AllowedNext(),
	}, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, identity dto.Identity, orderID string, status model.PaymentStatus) (*dto.StatusUpdateResult, error) {
	if !identity.IsSeller() {
		return nil, apperror.Unauthorized("only seller can update payment status")
	}

	if _, err := s.ownedOrder(ctx, identity, orderID); err != nil {
		return nil, err
	}

	order, err := s.reconcileService.ApplyStatus(ctx, orderID, status, "", "")
	if err != nil {
		return nil, err
	}

	return &dto.StatusUpdateResult{
		OrderID:        order.OrderID,
		Status:         order.Status,
		ShippingStatus: order.ShippingStatus,
		PaidAt:         order.PaidAt,
	}, nil
}

func (s *orderServiceImpl) NotificationHistory(ctx context.Context, orderID string, page int) ([]*model.PaymentNotification, int64, error) {
	if page < 1 {
		page = 1
	}
	return s.notificationRepo.List(ctx, orderID, page, ordersPerPage)
}

// ownedOrder loads an order and enforces visibility: customers see their
// own orders, sellers the orders of their store. An order outside the
// caller's scope reads as not found.
func (s *orderServiceImpl) ownedOrder(ctx context.Context, identity dto.Identity, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	if identity.IsSeller() {
		if order.SellerID != identity.SellerID {
			return nil, apperror.NotFound("order not found")
		}
	} else if order.UserID != identity.UserID {
		return nil, apperror.NotFound("order not found")
	}

	return order, nil
}

func orderView(order *model.Order) dto.OrderView {
	items := make([]dto.OrderItemView, len(order.Items))
	for i, item := range order.Items {
		items[i] = dto.OrderItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		}
	}

	return dto.OrderView{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		SellerID:       order.SellerID,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		Status:         order.Status,
		ShippingStatus: order.ShippingStatus,
		PaymentType:    order.PaymentType,
		TransactionID:  order.TransactionID,
		SnapToken:      order.SnapToken,
		PaymentURL:     order.PaymentURL,
		PaidAt:         order.PaidAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

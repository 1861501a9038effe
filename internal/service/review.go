package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReviewService interface {
	Create(ctx context.Context, userID, orderItemID string, rating int, comment string) (*model.Review, error)
}

type reviewServiceImpl struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
	sellerRepo repository.SellerRepository
	logger     *zap.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	sellerRepo repository.SellerRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewServiceImpl{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
		sellerRepo: sellerRepo,
		logger:     logger,
	}
}

// Create records a review for a delivered purchase. One review per order
// item; the seller's store rating is re-averaged afterwards.
func (s *reviewServiceImpl) Create(ctx context.Context, userID, orderItemID string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	item, err := s.orderRepo.FindOrderItem(ctx, orderItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("order item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order item: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, item.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperror.Unauthorized("order does not belong to user")
	}
	if order.Status != model.PaymentSuccess || order.ShippingStatus != model.ShippingDelivered {
		return nil, apperror.Conflict("order has not been delivered yet")
	}

	exists, err := s.reviewRepo.ExistsForOrderItem(ctx, orderItemID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("order item has already been reviewed")
	}

	review := &model.Review{
		ReviewID:    uuid.NewString(),
		OrderItemID: orderItemID,
		UserID:      userID,
		ProductID:   item.ProductID,
		SellerID:    order.SellerID,
		Rating:      rating,
		Comment:     comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	avg, err := s.reviewRepo.AverageRatingBySeller(ctx, order.SellerID)
	if err == nil {
		err = s.sellerRepo.UpdateStoreRating(ctx, order.SellerID, avg)
	}
	if err != nil {
		s.logger.Warn("update store rating",
			zap.String("seller_id", order.SellerID), zap.Error(err))
	}

	return review, nil
}

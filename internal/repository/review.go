package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ExistsForOrderItem(ctx context.Context, orderItemID string) (bool, error)
	AverageRatingBySeller(ctx context.Context, sellerID string) (float64, error)
}

type reviewRepoImpl struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepoImpl{db: db}
}

func (r *reviewRepoImpl) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepoImpl) ExistsForOrderItem(ctx context.Context, orderItemID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("order_item_id = ?", orderItemID).
		Count(&count).Error

	return count > 0, err
}

func (r *reviewRepoImpl) AverageRatingBySeller(ctx context.Context, sellerID string) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("seller_id = ?", sellerID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error

	return avg, err
}

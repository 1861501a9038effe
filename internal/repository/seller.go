package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type SellerRepository interface {
	FindByID(ctx context.Context, sellerID string) (*model.Seller, error)
	UpdateTotalSales(ctx context.Context, tx *gorm.DB, sellerID string, totalSales int64) error
	UpdateStoreRating(ctx context.Context, sellerID string, rating float64) error
}

type sellerRepoImpl struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepoImpl{db: db}
}

func (r *sellerRepoImpl) FindByID(ctx context.Context, sellerID string) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		First(&seller).Error

	if err != nil {
		return nil, err
	}

	return &seller, nil
}

func (r *sellerRepoImpl) UpdateTotalSales(ctx context.Context, tx *gorm.DB, sellerID string, totalSales int64) error {
	return tx.WithContext(ctx).Model(&model.Seller{}).
		Where("seller_id = ?", sellerID).
		Update("total_sales", totalSales).Error
}

func (r *sellerRepoImpl) UpdateStoreRating(ctx context.Context, sellerID string, rating float64) error {
	return r.db.WithContext(ctx).Model(&model.Seller{}).
		Where("seller_id = ?", sellerID).
		Update("store_rating", rating).Error
}

package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	// FindManyUnscoped also returns soft-deleted products so callers can
	// tell "deleted" apart from "never existed".
	FindManyUnscoped(ctx context.Context, productIDs []string) ([]*model.Product, error)
	// DebitStock decrements stock only when enough remains. It reports
	// false when the conditional update matched no row.
	DebitStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (bool, error)
	UpdateTotalSales(ctx context.Context, tx *gorm.DB, productID string, totalSales int64) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindManyUnscoped(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("product_id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DebitStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *productRepoImpl) UpdateTotalSales(ctx context.Context, tx *gorm.DB, productID string, totalSales int64) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ?", productID).
		Update("total_sales", totalSales).Error
}

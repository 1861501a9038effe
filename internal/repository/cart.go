package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Cart, error)
	FirstOrCreate(ctx context.Context, userID string) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, productID string) (*model.CartItem, error)
	FindItemByID(ctx context.Context, cartItemID string) (*model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, cartItemID string) error
	DeleteItems(ctx context.Context, cartItemIDs []string) error
	ClearItems(ctx context.Context, cartID string) error
	// DeleteCart removes the cart and everything in it; used by checkout
	// inside its transaction.
	DeleteCart(ctx context.Context, tx *gorm.DB, cartID string) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) FirstOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where(model.Cart{UserID: userID}).
		Attrs(model.Cart{CartID: uuid.NewString()}).
		FirstOrCreate(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) FindItem(ctx context.Context, cartID, productID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) FindItemByID(ctx context.Context, cartItemID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_item_id = ?", cartItemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) CreateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepoImpl) UpdateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("cart_item_id = ?", item.CartItemID).
		Updates(map[string]interface{}{
			"quantity": item.Quantity,
			"price":    item.Price,
		}).Error
}

func (r *cartRepoImpl) DeleteItem(ctx context.Context, cartItemID string) error {
	return r.db.WithContext(ctx).
		Where("cart_item_id = ?", cartItemID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) DeleteItems(ctx context.Context, cartItemIDs []string) error {
	if len(cartItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_item_id IN ?", cartItemIDs).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) ClearItems(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) DeleteCart(ctx context.Context, tx *gorm.DB, cartID string) error {
	if err := tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error; err != nil {
		return err
	}

	return tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.Cart{}).Error
}

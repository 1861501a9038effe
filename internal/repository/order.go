package repository

import (
	"context"
	"time"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

// OrderFilter narrows List results. Zero values mean "no filter".
type OrderFilter struct {
	UserID         string
	SellerID       string
	Status         model.PaymentStatus
	ShippingStatus model.ShippingStatus
	OrderID        string
	DateFrom       *time.Time
	DateTo         *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
	FindOrderItem(ctx context.Context, orderItemID string) (*model.OrderItem, error)
	List(ctx context.Context, filter OrderFilter, page, perPage int) ([]*model.Order, int64, error)
	UpdatePaymentSession(ctx context.Context, tx *gorm.DB, orderID, snapToken, paymentURL string) error
	// ApplyStatus flips the payment status of an order that is still open
	// (pending or challenge). It reports false when no row matched, i.e.
	// the order is already in a terminal state.
	ApplyStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.PaymentStatus,
		shippingStatus model.ShippingStatus, paymentType, transactionID string, paidAt *time.Time) (bool, error)
	UpdateShippingStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.ShippingStatus) error
	SumDeliveredAmountBySeller(ctx context.Context, tx *gorm.DB, sellerID string) (int64, error)
	SumDeliveredQuantityByProduct(ctx context.Context, tx *gorm.DB, productID string) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) FindOrderItem(ctx context.Context, orderItemID string) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter, page, perPage int) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ShippingStatus != "" {
		query = query.Where("shipping_status = ?", filter.ShippingStatus)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&orders).Error

	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepoImpl) UpdatePaymentSession(ctx context.Context, tx *gorm.DB, orderID, snapToken, paymentURL string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"snap_token":  snapToken,
			"payment_url": paymentURL,
		}).Error
}

func (r *orderRepoImpl) ApplyStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.PaymentStatus,
	shippingStatus model.ShippingStatus, paymentType, transactionID string, paidAt *time.Time) (bool, error) {

	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]model.PaymentStatus{model.PaymentPending, model.PaymentChallenge}).
		Updates(map[string]interface{}{
			"status":          status,
			"shipping_status": shippingStatus,
			"payment_type":    paymentType,
			"transaction_id":  transactionID,
			"paid_at":         paidAt,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) UpdateShippingStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.ShippingStatus) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"shipping_status": status,
			"updated_at":      time.Now(),
		}).Error
}

func (r *orderRepoImpl) SumDeliveredAmountBySeller(ctx context.Context, tx *gorm.DB, sellerID string) (int64, error) {
	var total int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("seller_id = ? AND status = ? AND shipping_status = ?",
			sellerID, model.PaymentSuccess, model.ShippingDelivered).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error

	return total, err
}

func (r *orderRepoImpl) SumDeliveredQuantityByProduct(ctx context.Context, tx *gorm.DB, productID string) (int64, error) {
	var total int64
	err := tx.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.order_id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status = ? AND orders.shipping_status = ?",
			productID, model.PaymentSuccess, model.ShippingDelivered).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&total).Error

	return total, err
}

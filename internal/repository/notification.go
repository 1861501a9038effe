package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository is the append-only webhook audit log. Rows are
// never updated or deleted.
type NotificationRepository interface {
	Append(ctx context.Context, notification *model.PaymentNotification) error
	List(ctx context.Context, orderID string, page, perPage int) ([]*model.PaymentNotification, int64, error)
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{db: db}
}

func (r *notificationRepoImpl) Append(ctx context.Context, notification *model.PaymentNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepoImpl) List(ctx context.Context, orderID string, page, perPage int) ([]*model.PaymentNotification, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.PaymentNotification{})

	if orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*model.PaymentNotification
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&notifications).Error

	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

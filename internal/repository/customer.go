package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Customer, error)
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{db: db}
}

func (r *customerRepoImpl) FindByUserID(ctx context.Context, userID string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&customer).Error

	if err != nil {
		return nil, err
	}

	return &customer, nil
}

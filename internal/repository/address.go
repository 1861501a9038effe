package repository

import (
	"context"

	"github.com/lumora-shop/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type AddressRepository interface {
	FindOwned(ctx context.Context, addressID, userID string) (*model.Address, error)
}

type addressRepoImpl struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepoImpl{db: db}
}

func (r *addressRepoImpl) FindOwned(ctx context.Context, addressID, userID string) (*model.Address, error) {
	var address model.Address
	err := r.db.WithContext(ctx).
		Where("address_id = ? AND user_id = ?", addressID, userID).
		First(&address).Error

	if err != nil {
		return nil, err
	}

	return &address, nil
}

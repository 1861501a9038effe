package service

import (
	"context"
	"fmt"

	"github.com/lumora-shop/marketplace-api/internal/repository"
	"gorm.io/gorm"
)

// SalesService recomputes seller and product sales rollups. Recomputation
// is a full re-aggregation, so it is idempotent and safe to replay.
type SalesService interface {
	Recompute(ctx context.Context, tx *gorm.DB, sellerID string, productIDs []string) error
}

type salesServiceImpl struct {
	orderRepo   repository.OrderRepository
	sellerRepo  repository.SellerRepository
	productRepo repository.ProductRepository
}

func NewSalesService(
	orderRepo repository.OrderRepository,
	sellerRepo repository.SellerRepository,
	productRepo repository.ProductRepository,
) SalesService {
	return &salesServiceImpl{
		orderRepo:   orderRepo,
		sellerRepo:  sellerRepo,
		productRepo: productRepo,
	}
}

func (s *salesServiceImpl) Recompute(ctx context.Context, tx *gorm.DB, sellerID string, productIDs []string) error {
	totalSales, err := s.orderRepo.SumDeliveredAmountBySeller(ctx, tx, sellerID)
	if err != nil {
		return fmt.Errorf("sum seller sales: %w", err)
	}
	if err := s.sellerRepo.UpdateTotalSales(ctx, tx, sellerID, totalSales); err != nil {
		return fmt.Errorf("update seller sales: %w", err)
	}

	for _, productID := range productIDs {
		sold, err := s.orderRepo.SumDeliveredQuantityByProduct(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("sum product sales: %w", err)
		}
		if err := s.productRepo.UpdateTotalSales(ctx, tx, productID, sold); err != nil {
			return fmt.Errorf("update product sales: %w", err)
		}
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCartItemQuantity = 99

type CartService interface {
	View(ctx context.Context, userID string) (*dto.CartSummary, error)
	AddItem(ctx context.Context, userID, productID string, quantity int64) error
	UpdateItem(ctx context.Context, userID, cartItemID string, quantity int64) error
	RemoveItem(ctx context.Context, userID, cartItemID string) error
	Clear(ctx context.Context, userID string) error
	ItemCount(ctx context.Context, userID string) (int64, error)
	CheckStock(ctx context.Context, userID string) (*dto.StockCheck, error)
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

func validQuantity(quantity int64) error {
	if quantity < 1 || quantity > maxCartItemQuantity {
		return apperror.Validation(fmt.Sprintf("quantity must be between 1 and %d", maxCartItemQuantity))
	}
	return nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID string, quantity int64) error {
	if err := validQuantity(quantity); err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("product not found")
	}
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if !product.Available() {
		return apperror.NotFound("product not found")
	}

	if product.StockQuantity < quantity {
		return apperror.Conflict(fmt.Sprintf("insufficient stock, available: %d", product.StockQuantity))
	}

	cart, err := s.cartRepo.FirstOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("get or create cart: %w", err)
	}

	item, err := s.cartRepo.FindItem(ctx, cart.CartID, product.ProductID)
	switch {
	case err == nil:
		// existing product: accumulate, re-checking the cumulative quantity
		newQuantity := item.Quantity + quantity
		if newQuantity > product.StockQuantity {
			return apperror.Conflict("total quantity exceeds available stock")
		}
		item.Quantity = newQuantity
		item.Price = product.Price
		return s.cartRepo.UpdateItem(ctx, item)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.cartRepo.CreateItem(ctx, &model.CartItem{
			CartItemID: uuid.NewString(),
			CartID:     cart.CartID,
			ProductID:  product.ProductID,
			Quantity:   quantity,
			Price:      product.Price,
		})
	default:
		return fmt.Errorf("find cart item: %w", err)
	}
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID, cartItemID string, quantity int64) error {
	if err := validQuantity(quantity); err != nil {
		return err
	}

	item, err := s.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("product not found")
	}
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}

	if product.StockQuantity < quantity {
		return apperror.Conflict(fmt.Sprintf("insufficient stock, available: %d", product.StockQuantity))
	}

	item.Quantity = quantity
	item.Price = product.Price
	return s.cartRepo.UpdateItem(ctx, item)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	_, err := s.ownedItem(ctx, userID, cartItemID)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return nil // already gone
	}
	if err != nil {
		return err
	}

	return s.cartRepo.DeleteItem(ctx, cartItemID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID string) error {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find cart: %w", err)
	}

	return s.cartRepo.ClearItems(ctx, cart.CartID)
}

// View builds the cart summary and lazily prunes items whose product is
// gone, inactive, or out of stock. A quantity above current stock is
// reported as a warning, never auto-corrected.
func (s *cartServiceImpl) View(ctx context.Context, userID string) (*dto.CartSummary, error) {
	cart, err := s.cartRepo.FirstOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	full, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	cart = full

	summary := &dto.CartSummary{
		Items:        []dto.CartViewItem{},
		RemovedItems: []dto.RemovedCartItem{},
	}
	if len(cart.Items) == 0 {
		return summary, nil
	}

	productIDs := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.FindManyUnscoped(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	productMap := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productMap[p.ProductID] = p
	}

	var pruned []string
	for _, item := range cart.Items {
		product := productMap[item.ProductID]

		if reason, removed := removalReason(product); removed {
			name := "Product not available"
			if product != nil {
				name = product.Name
			}
			summary.RemovedItems = append(summary.RemovedItems, dto.RemovedCartItem{
				ProductID: item.ProductID,
				Name:      name,
				Reason:    reason,
			})
			pruned = append(pruned, item.CartItemID)
			continue
		}

		view := dto.CartViewItem{
			CartItemID: item.CartItemID,
			Product: dto.CartViewProduct{
				ProductID:     product.ProductID,
				Name:          product.Name,
				Price:         item.Price,
				StockQuantity: product.StockQuantity,
				OutOfStock:    product.StockQuantity <= 0,
			},
			Quantity:   item.Quantity,
			TotalPrice: item.Price * item.Quantity,
		}

		if item.Quantity > product.StockQuantity {
			view.StockWarning = fmt.Sprintf("Only %d items available", product.StockQuantity)
			summary.StockWarnings = append(summary.StockWarnings, dto.StockWarning{
				ProductName:       product.Name,
				RequestedQuantity: item.Quantity,
				AvailableStock:    product.StockQuantity,
			})
		}

		summary.TotalItems += item.Quantity
		summary.Subtotal += item.Price * item.Quantity
		summary.Items = append(summary.Items, view)
	}

	if len(pruned) > 0 {
		if err := s.cartRepo.DeleteItems(ctx, pruned); err != nil {
			// pruning is best effort; the next view retries it
			s.logger.Warn("prune unavailable cart items",
				zap.String("cart_id", cart.CartID), zap.Error(err))
		}
	}

	return summary, nil
}

func (s *cartServiceImpl) ItemCount(ctx context.Context, userID string) (int64, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find cart: %w", err)
	}

	var count int64
	for _, item := range cart.Items {
		count += item.Quantity
	}
	return count, nil
}

func (s *cartServiceImpl) CheckStock(ctx context.Context, userID string) (*dto.StockCheck, error) {
	check := &dto.StockCheck{IsValid: true, StockIssues: []dto.StockWarning{}}

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return check, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}

	if len(cart.Items) == 0 {
		return check, nil
	}

	productIDs := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.FindManyUnscoped(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	productMap := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productMap[p.ProductID] = p
	}

	for _, item := range cart.Items {
		product := productMap[item.ProductID]
		if product == nil {
			continue
		}
		if item.Quantity > product.StockQuantity {
			check.IsValid = false
			check.StockIssues = append(check.StockIssues, dto.StockWarning{
				ProductName:       product.Name,
				RequestedQuantity: item.Quantity,
				AvailableStock:    product.StockQuantity,
			})
		}
	}

	return check, nil
}

func (s *cartServiceImpl) ownedItem(ctx context.Context, userID, cartItemID string) (*model.CartItem, error) {
	item, err := s.cartRepo.FindItemByID(ctx, cartItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("cart item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find cart item: %w", err)
	}

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthorized("cart item does not belong to user")
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if item.CartID != cart.CartID {
		return nil, apperror.Unauthorized("cart item does not belong to user")
	}

	return item, nil
}

func removalReason(product *model.Product) (string, bool) {
	switch {
	case product == nil, product.DeletedAt.Valid:
		return "Product deleted", true
	case !product.IsActive:
		return "Product inactive", true
	case product.StockQuantity <= 0:
		return "Product out of stock", true
	}
	return "", false
}

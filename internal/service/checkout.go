package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/client"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderRefPrefix is prepended to the order id sent to the payment gateway.
// The reconciler strips it when resolving inbound notifications.
const orderRefPrefix = "ORDER-"

func OrderRef(orderID string) string { return orderRefPrefix + orderID }

func StripOrderRef(orderRef string) string {
	return strings.TrimPrefix(orderRef, orderRefPrefix)
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID, addressID string) (*dto.CheckoutResult, error)
}

type checkoutServiceImpl struct {
	db           *gorm.DB
	gateway      client.MidtransClient
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	addressRepo  repository.AddressRepository
	customerRepo repository.CustomerRepository
	logger       *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.MidtransClient,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	customerRepo repository.CustomerRepository,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:           db,
		gateway:      gateway,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// Checkout converts the user's cart into an immutable order and opens a
// payment session for it. The whole conversion is one transaction: the
// gateway call happens before commit, so a gateway failure leaves no order
// behind and the cart untouched. Stock is not reserved here; the debit is
// deferred to payment success.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID, addressID string) (*dto.CheckoutResult, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Validation("cart is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperror.Validation("cart is empty")
	}

	if _, err := s.addressRepo.FindOwned(ctx, addressID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("address not found")
		}
		return nil, fmt.Errorf("find address: %w", err)
	}

	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("customer profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	productIDs := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	if len(products) != len(cart.Items) {
		return nil, apperror.NotFound("some products in your cart no longer exist")
	}
	productMap := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productMap[p.ProductID] = p
	}

	// single-seller order; split checkout is not supported
	sellerID := products[0].SellerID
	for _, p := range products {
		if p.SellerID != sellerID {
			return nil, apperror.Conflict("all products must be from the same seller")
		}
	}

	orderID := uuid.NewString()
	var (
		total        int64
		orderItems   = make([]*model.OrderItem, len(cart.Items))
		sessionItems = make([]client.SessionItem, len(cart.Items))
	)
	for i, item := range cart.Items {
		product := productMap[item.ProductID]
		// re-priced from the live catalog, not the cart snapshot
		subtotal := product.Price * item.Quantity
		total += subtotal

		orderItems[i] = &model.OrderItem{
			OrderItemID: uuid.NewString(),
			OrderID:     orderID,
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Subtotal:    subtotal,
		}
		sessionItems[i] = client.SessionItem{
			ID:       product.ProductID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: item.Quantity,
		}
	}

	// guard against drift between the order total and the item amounts
	// handed to the gateway
	var itemTotal int64
	for _, item := range sessionItems {
		itemTotal += item.Price * item.Quantity
	}
	if itemTotal != total {
		return nil, apperror.Conflict("total amount mismatch with items total")
	}

	firstName, lastName := splitName(customer.FullName)
	sessionReq := &client.SessionRequest{
		OrderRef:    OrderRef(orderID),
		GrossAmount: total,
		Items:       sessionItems,
		Customer: client.SessionCustomer{
			FirstName: firstName,
			LastName:  lastName,
			Email:     customer.Email,
			Phone:     customer.PhoneNumber,
		},
	}

	order := &model.Order{
		OrderID:     orderID,
		UserID:      userID,
		SellerID:    sellerID,
		AddressID:   addressID,
		TotalAmount: total,
		Status:      model.PaymentPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}

		session, err := s.gateway.CreateSession(ctx, sessionReq)
		if err != nil {
			return apperror.External("create payment session", err)
		}

		if err := s.orderRepo.UpdatePaymentSession(ctx, tx, orderID, session.Token, session.RedirectURL); err != nil {
			return fmt.Errorf("store payment session: %w", err)
		}
		order.SnapToken = session.Token
		order.PaymentURL = session.RedirectURL

		if err := s.cartRepo.DeleteCart(ctx, tx, cart.CartID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("checkout failed",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, err
	}

	return &dto.CheckoutResult{
		OrderID:     order.OrderID,
		TotalAmount: order.TotalAmount,
		SnapToken:   order.SnapToken,
		PaymentURL:  order.PaymentURL,
		Status:      order.Status,
	}, nil
}

func splitName(full string) (string, string) {
	first, rest, found := strings.Cut(full, " ")
	if !found {
		return full, ""
	}
	return first, strings.TrimSpace(rest)
}

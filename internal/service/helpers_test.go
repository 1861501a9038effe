package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lumora-shop/marketplace-api/internal/client"
	"github.com/lumora-shop/marketplace-api/internal/config"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	return db
}

type testEnv struct {
	db               *gorm.DB
	productRepo      repository.ProductRepository
	cartRepo         repository.CartRepository
	orderRepo        repository.OrderRepository
	notificationRepo repository.NotificationRepository
	sellerRepo       repository.SellerRepository
	addressRepo      repository.AddressRepository
	customerRepo     repository.CustomerRepository
	reviewRepo       repository.ReviewRepository
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	return &testEnv{
		db:               db,
		productRepo:      repository.NewProductRepository(db),
		cartRepo:         repository.NewCartRepository(db),
		orderRepo:        repository.NewOrderRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		sellerRepo:       repository.NewSellerRepository(db),
		addressRepo:      repository.NewAddressRepository(db),
		customerRepo:     repository.NewCustomerRepository(db),
		reviewRepo:       repository.NewReviewRepository(db),
	}
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.cartRepo, e.productRepo, zap.NewNop())
}

func (e *testEnv) checkoutService(gateway client.MidtransClient) CheckoutService {
	return NewCheckoutService(e.db, gateway,
		e.cartRepo, e.productRepo, e.orderRepo, e.addressRepo, e.customerRepo,
		zap.NewNop())
}

func (e *testEnv) reconcileService() ReconcileService {
	return NewReconcileService(e.db, newDecoderGateway(),
		e.orderRepo, e.productRepo, e.notificationRepo,
		zap.NewNop())
}

func (e *testEnv) salesService() SalesService {
	return NewSalesService(e.orderRepo, e.sellerRepo, e.productRepo)
}

func (e *testEnv) orderService() OrderService {
	return NewOrderService(e.db, e.orderRepo, e.notificationRepo,
		e.salesService(), e.reconcileService(), zap.NewNop())
}

func (e *testEnv) reviewService() ReviewService {
	return NewReviewService(e.reviewRepo, e.orderRepo, e.sellerRepo, zap.NewNop())
}

func (e *testEnv) seedProduct(t *testing.T, id, sellerID string, price, stock int64) *model.Product {
	t.Helper()
	product := &model.Product{
		ProductID:     id,
		SellerID:      sellerID,
		Name:          "Product " + id,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) seedSeller(t *testing.T, id string) *model.Seller {
	t.Helper()
	seller := &model.Seller{SellerID: id, StoreName: "Store " + id}
	require.NoError(t, e.db.Create(seller).Error)
	return seller
}

func (e *testEnv) seedCustomer(t *testing.T, userID string) *model.Customer {
	t.Helper()
	customer := &model.Customer{
		UserID:      userID,
		FullName:    "Test Customer",
		Email:       "customer@example.com",
		PhoneNumber: "081200000000",
	}
	require.NoError(t, e.db.Create(customer).Error)
	return customer
}

func (e *testEnv) seedAddress(t *testing.T, id, userID string) *model.Address {
	t.Helper()
	address := &model.Address{AddressID: id, UserID: userID, Address: "Jl. Test 1"}
	require.NoError(t, e.db.Create(address).Error)
	return address
}

func (e *testEnv) productStock(t *testing.T, productID string) int64 {
	t.Helper()
	var product model.Product
	require.NoError(t, e.db.Unscoped().Where("product_id = ?", productID).First(&product).Error)
	return product.StockQuantity
}

func (e *testEnv) order(t *testing.T, orderID string) *model.Order {
	t.Helper()
	order, err := e.orderRepo.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

type placedOrder struct {
	orderID   string
	productID string
	sellerID  string
	userID    string
	total     int64
}

// placeOrder runs the full cart-to-order flow against a stubbed gateway
// and returns the identifiers the reconciliation tests need.
func (e *testEnv) placeOrder(t *testing.T, price, stock, quantity int64) placedOrder {
	t.Helper()
	ctx := context.Background()

	userID := uuid.NewString()
	sellerID := uuid.NewString()
	productID := uuid.NewString()
	addressID := uuid.NewString()

	e.seedSeller(t, sellerID)
	e.seedCustomer(t, userID)
	e.seedAddress(t, addressID, userID)
	e.seedProduct(t, productID, sellerID, price, stock)

	require.NoError(t, e.cartService().AddItem(ctx, userID, productID, quantity))

	gateway := &fakeGateway{session: &client.Session{
		Token:       "snap-" + uuid.NewString(),
		RedirectURL: "https://pay.example/redirect",
	}}
	result, err := e.checkoutService(gateway).Checkout(ctx, userID, addressID)
	require.NoError(t, err)

	return placedOrder{
		orderID:   result.OrderID,
		productID: productID,
		sellerID:  sellerID,
		userID:    userID,
		total:     result.TotalAmount,
	}
}

func notificationBody(orderRef, transactionStatus, transactionID string, grossAmount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"order_id":%q,"transaction_status":%q,"transaction_id":%q,"payment_type":"bank_transfer","gross_amount":"%d.00"}`,
		orderRef, transactionStatus, transactionID, grossAmount))
}

// fakeGateway stubs the payment provider for checkout tests and records
// the last session request for assertions.
type fakeGateway struct {
	session *client.Session
	err     error
	lastReq *client.SessionRequest
	calls   int
}

func (g *fakeGateway) CreateSession(_ context.Context, req *client.SessionRequest) (*client.Session, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *fakeGateway) DecodeNotification(rawBody []byte) (*client.NotificationPayload, error) {
	return newDecoderGateway().DecodeNotification(rawBody)
}

// newDecoderGateway returns a real client that is only ever used for
// payload decoding; it never talks to the network.
func newDecoderGateway() client.MidtransClient {
	return client.NewMidtransClient(&config.Midtrans{
		BaseApiURL: "http://midtrans.invalid",
		ServerKey:  "test-server-key",
	})
}

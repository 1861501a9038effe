package dto

import (
	"time"

	"github.com/lumora-shop/marketplace-api/internal/model"
)

// Identity is the authenticated caller, resolved once at the transport
// boundary and passed explicitly into every operation.
type Identity struct {
	UserID   string
	Role     string
	SellerID string
}

const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

func (i Identity) IsSeller() bool { return i.Role == RoleSeller }

// -------- cart --------

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type CartViewProduct struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int64  `json:"stock_quantity"`
	OutOfStock    bool   `json:"out_of_stock"`
}

type CartViewItem struct {
	CartItemID   string          `json:"cart_item_id"`
	Product      CartViewProduct `json:"product"`
	Quantity     int64           `json:"quantity"`
	TotalPrice   int64           `json:"total_price"`
	StockWarning string          `json:"stock_warning,omitempty"`
}

type RemovedCartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

type StockWarning struct {
	ProductName       string `json:"product_name"`
	RequestedQuantity int64  `json:"requested_quantity"`
	AvailableStock    int64  `json:"available_stock"`
}

type CartSummary struct {
	TotalItems    int64             `json:"total_items"`
	Subtotal      int64             `json:"subtotal"`
	Items         []CartViewItem    `json:"items"`
	RemovedItems  []RemovedCartItem `json:"removed_items"`
	StockWarnings []StockWarning    `json:"stock_warnings,omitempty"`
}

type StockCheck struct {
	IsValid     bool           `json:"is_valid"`
	StockIssues []StockWarning `json:"stock_issues"`
}

// -------- checkout / orders --------

type CheckoutRequest struct {
	AddressID string `json:"address_id"`
}

type CheckoutResult struct {
	OrderID     string              `json:"order_id"`
	TotalAmount int64               `json:"total_amount"`
	SnapToken   string              `json:"snap_token"`
	PaymentURL  string              `json:"payment_url"`
	Status      model.PaymentStatus `json:"status"`
}

type OrderListFilter struct {
	Status         string
	ShippingStatus string
	OrderID        string
	DateFrom       string
	DateTo         string
}

type OrderItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
	Subtotal    int64  `json:"subtotal"`
}

type OrderView struct {
	OrderID        string               `json:"order_id"`
	UserID         string               `json:"user_id"`
	SellerID       string               `json:"seller_id"`
	Items          []OrderItemView      `json:"items"`
	TotalAmount    int64                `json:"total_amount"`
	Status         model.PaymentStatus  `json:"status"`
	ShippingStatus model.ShippingStatus `json:"shipping_status"`
	PaymentType    string               `json:"payment_type,omitempty"`
	TransactionID  string               `json:"transaction_id,omitempty"`
	SnapToken      string               `json:"snap_token,omitempty"`
	PaymentURL     string               `json:"payment_url,omitempty"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

type OrderList struct {
	Orders     []OrderView `json:"orders"`
	Pagination Pagination  `json:"pagination"`
}

type UpdateShippingStatusRequest struct {
	ShippingStatus string `json:"shipping_status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ShippingUpdateResult struct {
	OrderID           string                 `json:"order_id"`
	PreviousStatus    model.ShippingStatus   `json:"previous_status"`
	CurrentStatus     model.ShippingStatus   `json:"current_status"`
	ValidNextStatuses []model.ShippingStatus `json:"valid_next_statuses"`
}

type StatusUpdateResult struct {
	OrderID        string               `json:"order_id"`
	Status         model.PaymentStatus  `json:"status"`
	ShippingStatus model.ShippingStatus `json:"shipping_status"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
}

// -------- reviews --------

type CreateReviewRequest struct {
	OrderItemID string `json:"order_item_id"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
}

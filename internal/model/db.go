package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ProductID     string `gorm:"primaryKey;size:64;not null"`
	SellerID      string `gorm:"size:64;index;not null"`
	CategoryID    string `gorm:"size:64;index"`
	Name          string `gorm:"size:255;not null"`
	Description   string
	Price         int64 `gorm:"not null"`
	StockQuantity int64 `gorm:"not null"` // never negative, enforced by conditional updates
	IsActive      bool  `gorm:"not null;default:true"`
	TotalSales    int64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// Available reports whether the product can still be sold.
func (p *Product) Available() bool {
	return p.IsActive && !p.DeletedAt.Valid
}

type Cart struct {
	CartID    string `gorm:"primaryKey;size:64;not null"`
	UserID    string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []CartItem `gorm:"foreignKey:CartID"`
}

type CartItem struct {
	CartItemID string `gorm:"primaryKey;size:64;not null"`
	CartID     string `gorm:"size:64;uniqueIndex:idx_cart_product;not null"`
	ProductID  string `gorm:"size:64;uniqueIndex:idx_cart_product;not null"`
	Quantity   int64  `gorm:"not null"`
	Price      int64  `gorm:"not null"` // unit price snapshot at time of add
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	OrderID        string         `gorm:"primaryKey;size:64;not null"`
	UserID         string         `gorm:"size:64;index;not null"`
	SellerID       string         `gorm:"size:64;index;not null"`
	AddressID      string         `gorm:"size:64;not null"`
	TotalAmount    int64          `gorm:"not null"`
	Status         PaymentStatus  `gorm:"size:32;index;not null"`
	ShippingStatus ShippingStatus `gorm:"size:32;index"`
	PaymentType    string         `gorm:"size:32"`
	TransactionID  string         `gorm:"size:128;index"`
	SnapToken      string         `gorm:"size:128"`
	PaymentURL     string         `gorm:"size:512"`
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable snapshot of a purchased product. Catalog edits
// after checkout never alter it.
type OrderItem struct {
	OrderItemID string `gorm:"primaryKey;size:64;not null"`
	OrderID     string `gorm:"size:64;index;not null"`
	ProductID   string `gorm:"size:64;index;not null"`
	ProductName string `gorm:"size:255;not null"`
	Quantity    int64  `gorm:"not null"`
	Price       int64  `gorm:"not null"`
	Subtotal    int64  `gorm:"not null"`
	CreatedAt   time.Time
}

// PaymentNotification is the append-only audit log of inbound gateway
// webhooks. One row per received call, duplicates included; never mutated.
type PaymentNotification struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       string `gorm:"size:64;index"`
	TransactionID string `gorm:"size:128;index"`
	Status        string `gorm:"size:32"`
	PaymentType   string `gorm:"size:32"`
	GrossAmount   string `gorm:"size:32"`
	RawPayload    string
	CreatedAt     time.Time
}

type Seller struct {
	SellerID    string `gorm:"primaryKey;size:64;not null"`
	StoreName   string `gorm:"size:255;not null"`
	TotalSales  int64  `gorm:"not null;default:0"`
	StoreRating float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Customer struct {
	UserID      string `gorm:"primaryKey;size:64;not null"`
	FullName    string `gorm:"size:255;not null"`
	Email       string `gorm:"size:255"`
	PhoneNumber string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Address struct {
	AddressID string `gorm:"primaryKey;size:64;not null"`
	UserID    string `gorm:"size:64;index;not null"`
	Address   string `gorm:"size:512;not null"`
	District  string `gorm:"size:128"`
	PosCode   string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Review may only exist for an order item whose order was paid and
// delivered; at most one per order item.
type Review struct {
	ReviewID    string `gorm:"primaryKey;size:64;not null"`
	OrderItemID string `gorm:"size:64;uniqueIndex;not null"`
	UserID      string `gorm:"size:64;index;not null"`
	ProductID   string `gorm:"size:64;index;not null"`
	SellerID    string `gorm:"size:64;index;not null"`
	Rating      int    `gorm:"not null"`
	Comment     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

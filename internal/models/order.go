package models

import (
	"time"

	"grocery/internal/apperrors"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentGatewayWallet  PaymentMethod = "gateway_wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGatewayWallet
}

// OrderItem is a line of an order. Name, Price and Image are snapshots of the
// catalog at checkout and never follow later catalog edits.
type OrderItem struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	OrderID   string `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID string `json:"productId" gorm:"type:varchar(36);not null"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
}

// Subtotal returns Price * Quantity.
func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"omitempty,email"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region" validate:"omitempty,max=100"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// Order represents a customer order. Orders are never deleted.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          *string         `json:"userId" gorm:"type:varchar(36);index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(32);not null"`
	ItemsPrice      int64           `json:"itemsPrice"`
	TaxPrice        int64           `json:"taxPrice"`
	ShippingPrice   int64           `json:"shippingPrice"`
	TotalPrice      int64           `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ComputedTotal is the sum of line subtotals plus shipping and tax.
func (o *Order) ComputedTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total + o.ShippingPrice + o.TaxPrice
}

// CheckTotal rejects an order whose stored total disagrees with its lines.
func (o *Order) CheckTotal() error {
	if computed := o.ComputedTotal(); o.TotalPrice != computed {
		return apperrors.Validation("order total %d does not match its lines %d", o.TotalPrice, computed)
	}
	return nil
}

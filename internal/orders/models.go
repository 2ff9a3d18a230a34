package orders

import (
	"time"

	"github.com/kimiashop/orderflow/internal/checkout"
)

type Order struct {
	ID            string
	OrderNo       string
	CustomerID    string // empty for guest checkout
	GuestName     string
	GuestPhone    string
	Status        Status
	SubtotalCents int64
	ShippingCents int64
	VATCents      int64
	DutiesCents   int64
	TotalCents    int64
	PaymentMethod string
	Address       checkout.Address
	Notes         string
	Carrier       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID              int64
	OrderID         string
	ProductID       string
	ProductName     string
	SKU             string
	Qty             int
	UnitPriceCents  int64
	TotalPriceCents int64
}

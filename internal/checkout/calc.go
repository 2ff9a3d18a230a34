package checkout

import (
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/shopspring/decimal"
)

type Address struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Street   string `json:"street"`
	Postcode string `json:"postcode"`
}

// Calculation is the financial snapshot taken at "begin checkout" and read
// back once at payment confirmation.
type Calculation struct {
	OrderNo       string         `json:"order_no"`
	CustomerID    string         `json:"customer_id,omitempty"`
	GuestName     string         `json:"guest_name,omitempty"`
	GuestPhone    string         `json:"guest_phone,omitempty"`
	Items         map[string]int `json:"items"` // product_id -> qty
	SubtotalCents int64          `json:"subtotal_cents"`
	ShippingCents int64          `json:"shipping_cents"`
	VATCents      int64          `json:"vat_cents"`
	DutiesCents   int64          `json:"duties_cents"`
	TotalCents    int64          `json:"total_cents"`
	PaymentMethod string         `json:"payment_method"`
	Notes         string         `json:"notes,omitempty"`
	Address       Address        `json:"address"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Rates drive the tax/duty math. Values are fractions, e.g. VAT 0.09.
type Rates struct {
	VAT           decimal.Decimal
	Duties        decimal.Decimal
	ShippingCents int64
}

func DefaultRates() Rates {
	return Rates{
		VAT:           decimal.NewFromFloat(0.09),
		Duties:        decimal.NewFromFloat(0.04),
		ShippingCents: 50_000,
	}
}

// Calculate prices a cart against unit prices (cents per product id).
// Every cart line must have a known price and a positive quantity.
func Calculate(items map[string]int, priceCents map[string]int64, r Rates) (Calculation, error) {
	if len(items) == 0 {
		return Calculation{}, errs.New(errs.KindValidation, "empty cart")
	}
	var subtotal int64
	for pid, qty := range items {
		if qty <= 0 {
			return Calculation{}, errs.Newf(errs.KindValidation, "invalid qty %d for product %s", qty, pid)
		}
		price, ok := priceCents[pid]
		if !ok {
			return Calculation{}, errs.Newf(errs.KindNotFound, "product not found: %s", pid)
		}
		subtotal += price * int64(qty)
	}

	sub := decimal.NewFromInt(subtotal)
	vat := sub.Mul(r.VAT).Round(0).IntPart()
	duties := sub.Mul(r.Duties).Round(0).IntPart()

	return Calculation{
		Items:         items,
		SubtotalCents: subtotal,
		ShippingCents: r.ShippingCents,
		VATCents:      vat,
		DutiesCents:   duties,
		TotalCents:    subtotal + r.ShippingCents + vat + duties,
	}, nil
}

package catalog

import "time"

// ShowcaseProduct is the authoritative catalog record; its stock is the
// single source of truth.
type ShowcaseProduct struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Barcode    string    `json:"barcode,omitempty"`
	Stock      int       `json:"stock"`
	PriceCents int64     `json:"price_cents"`
	Visible    bool      `json:"visible"`
	AuditNote  string    `json:"audit_note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ShopProduct is the customer-facing projection, keyed by the showcase
// product id. It is never written independently.
type ShopProduct struct {
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	PriceCents int64     `json:"price_cents"`
	UpdatedAt  time.Time `json:"updated_at"`
}

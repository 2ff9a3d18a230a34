package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventOrderDispatched = "OrderDispatched"
	EventShopSynced      = "ShopStockSynced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	CustomerID string    `json:"customer_id,omitempty"`
	Items      []ItemQty `json:"items"`
	TotalCents int64     `json:"total_cents"`
}

type OrderDispatchedPayload struct {
	OrderID string `json:"order_id"`
	OrderNo string `json:"order_no"`
	Carrier string `json:"carrier"`
	Phone   string `json:"phone"`
}

type ShopSyncedDetail struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	PrevStock int    `json:"prev_stock"`
	Diverged  bool   `json:"diverged"`
}

type ShopSyncedPayload struct {
	OrderID string             `json:"order_id"`
	Details []ShopSyncedDetail `json:"details"`
}

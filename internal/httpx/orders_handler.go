package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kimiashop/orderflow/internal/checkout"
	"github.com/kimiashop/orderflow/internal/delivery"
	"github.com/kimiashop/orderflow/internal/errs"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderStore is the slice of orders.Repo the handlers need.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	GetOrderByNo(ctx context.Context, orderNo string) (orders.Order, error)
	ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	Transition(ctx context.Context, orderID string, to orders.Status, carrier string) (orders.Order, error)
	ConfirmCheckout(ctx context.Context, calc checkout.Calculation) (orders.Order, bool, error)
}

type OrdersHandler struct {
	Repo     OrderStore
	Delivery *delivery.Service
	Producer *kafkax.Producer // order.dispatched
	Redis    *redis.Client
	Service  string
	Log      zerolog.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/items", h.listItems)
	r.Post("/orders/{id}/dispatch", h.dispatch)
	r.Post("/orders/{id}/cancel", h.cancel)
}

type OrderResp struct {
	OrderID    string `json:"order_id"`
	OrderNo    string `json:"order_no"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
	Carrier    string `json:"carrier,omitempty"`
}

// statusCacheJSON is the one shape written under KeyOrderStatus, so cache
// hits and cold reads return the same body.
func statusCacheJSON(o orders.Order) []byte {
	b, _ := json.Marshal(OrderResp{
		OrderID: o.ID, OrderNo: o.OrderNo, Status: string(o.Status),
		TotalCents: o.TotalCents, Carrier: o.Carrier,
	})
	return b
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// status cache fast path
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	b := statusCacheJSON(o)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listItems(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Repo.GetOrder(ctx, orderID); err != nil {
		writeErr(w, err)
		return
	}
	items, err := h.Repo.ListItems(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type DispatchReq struct {
	Carrier string `json:"carrier"`
	Phone   string `json:"phone,omitempty"` // overrides the phone stored on the order
}

type DispatchResp struct {
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	CodeExpiresAt time.Time `json:"code_expires_at"`
}

// dispatch marks the order handed to a carrier and issues the delivery
// verification code. All validation happens before the status transition so
// a rejected dispatch never strands the order; re-dispatching an already
// DISPATCHED order re-issues the code (retry path for a failed Issue).
func (h *OrdersHandler) dispatch(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req DispatchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errs.New(errs.KindValidation, "invalid json"))
		return
	}
	if req.Carrier == "" {
		writeErr(w, errs.New(errs.KindValidation, "carrier required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	phone := req.Phone
	if phone == "" {
		phone = o.GuestPhone
	}
	if phone == "" {
		writeErr(w, errs.New(errs.KindValidation, "order has no recipient phone"))
		return
	}

	alreadyDispatched := o.Status == orders.StatusDispatched
	if !alreadyDispatched {
		o, err = h.Repo.Transition(ctx, orderID, orders.StatusDispatched, req.Carrier)
		if err != nil {
			writeErr(w, err)
			return
		}
	}

	code, err := h.Delivery.Issue(ctx, o.ID, o.OrderNo, phone)
	if err != nil {
		// order stays DISPATCHED; a retry of this endpoint re-issues
		writeErr(w, err)
		return
	}

	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID)).Err()
	if !alreadyDispatched {
		h.publishDispatched(o, r.Header.Get("X-Request-Id"))
	}

	writeJSON(w, http.StatusOK, DispatchResp{OrderID: o.ID, Status: string(o.Status), CodeExpiresAt: code.ExpiresAt})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.Transition(ctx, orderID, orders.StatusCancelled, "")
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID)).Err()
	writeJSON(w, http.StatusOK, OrderResp{OrderID: o.ID, OrderNo: o.OrderNo, Status: string(o.Status), TotalCents: o.TotalCents})
}

func (h *OrdersHandler) publishDispatched(o orders.Order, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderDispatched,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderDispatchedPayload{
			OrderID: o.ID, OrderNo: o.OrderNo, Carrier: o.Carrier, Phone: o.GuestPhone,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderDispatched)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

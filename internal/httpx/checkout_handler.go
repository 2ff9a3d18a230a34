package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kimiashop/orderflow/internal/catalog"
	"github.com/kimiashop/orderflow/internal/checkout"
	"github.com/kimiashop/orderflow/internal/errs"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type CheckoutHandler struct {
	Catalog  *catalog.Repo
	Cache    checkout.Cache
	Repo     OrderStore
	Producer *kafkax.Producer // order.created
	Redis    *redis.Client
	Rates    checkout.Rates
	Service  string
	Log      zerolog.Logger
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout/begin", h.begin)
	r.Post("/checkout/confirm", h.confirm)
}

type BeginCheckoutReq struct {
	CustomerID    string           `json:"customer_id,omitempty"`
	GuestName     string           `json:"guest_name,omitempty"`
	GuestPhone    string           `json:"guest_phone,omitempty"`
	Items         map[string]int   `json:"items"`
	PaymentMethod string           `json:"payment_method"`
	Address       checkout.Address `json:"address"`
	Notes         string           `json:"notes,omitempty"`
}

type BeginCheckoutResp struct {
	OrderNo       string `json:"order_no"`
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	VATCents      int64  `json:"vat_cents"`
	DutiesCents   int64  `json:"duties_cents"`
	TotalCents    int64  `json:"total_cents"`
}

func (h *CheckoutHandler) begin(w http.ResponseWriter, r *http.Request) {
	var req BeginCheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errs.New(errs.KindValidation, "invalid json"))
		return
	}
	if len(req.Items) == 0 || req.PaymentMethod == "" {
		writeErr(w, errs.New(errs.KindValidation, "missing fields"))
		return
	}
	if req.CustomerID == "" && req.GuestPhone == "" {
		writeErr(w, errs.New(errs.KindValidation, "customer_id or guest_phone required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ids := make([]string, 0, len(req.Items))
	for pid := range req.Items {
		ids = append(ids, pid)
	}
	prices, err := h.Catalog.Prices(ctx, ids)
	if err != nil {
		writeErr(w, err)
		return
	}

	calc, err := checkout.Calculate(req.Items, prices, h.Rates)
	if err != nil {
		writeErr(w, err)
		return
	}
	calc.OrderNo = orders.NewOrderNumber(time.Now())
	calc.CustomerID = req.CustomerID
	calc.GuestName = req.GuestName
	calc.GuestPhone = req.GuestPhone
	calc.PaymentMethod = req.PaymentMethod
	calc.Address = req.Address
	calc.Notes = req.Notes

	if err := h.Cache.Store(ctx, calc); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BeginCheckoutResp{
		OrderNo:       calc.OrderNo,
		SubtotalCents: calc.SubtotalCents,
		ShippingCents: calc.ShippingCents,
		VATCents:      calc.VATCents,
		DutiesCents:   calc.DutiesCents,
		TotalCents:    calc.TotalCents,
	})
}

type ConfirmCheckoutReq struct {
	OrderNo string `json:"order_no"`
}

type ConfirmCheckoutResp struct {
	OrderID    string `json:"order_id"`
	OrderNo    string `json:"order_no"`
	TotalCents int64  `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

func (h *CheckoutHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmCheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errs.New(errs.KindValidation, "invalid json"))
		return
	}
	if !orders.ValidOrderNumber(req.OrderNo) {
		writeErr(w, errs.New(errs.KindValidation, "invalid order_no"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// idempotency fast path; the DB check in ConfirmCheckout stays the truth
	idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.OrderNo)
	if id, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && id != "" {
		if o, rerr := h.Repo.GetOrder(ctx, id); rerr == nil {
			writeJSON(w, http.StatusAccepted, ConfirmCheckoutResp{
				OrderID: o.ID, OrderNo: o.OrderNo, TotalCents: o.TotalCents, Idempotent: true,
			})
			return
		}
	}

	calc, err := h.Cache.Get(ctx, req.OrderNo)
	if err != nil {
		// a replayed confirm finds the cache cleared but the order created
		if o, rerr := h.Repo.GetOrderByNo(ctx, req.OrderNo); rerr == nil {
			writeJSON(w, http.StatusAccepted, ConfirmCheckoutResp{
				OrderID: o.ID, OrderNo: o.OrderNo, TotalCents: o.TotalCents, Idempotent: true,
			})
			return
		}
		writeErr(w, err)
		return
	}

	o, existed, err := h.Repo.ConfirmCheckout(ctx, calc)
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.Cache.Clear(ctx, req.OrderNo); err != nil {
		h.Log.Warn().Err(err).Str("order_no", req.OrderNo).Msg("cart calculation clear failed")
	}

	_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, statusKey, statusCacheJSON(o), redisx.TTLStatusCache).Err()

	if !existed {
		h.publishCreated(o, calc, r.Header.Get("X-Request-Id"))
	}

	writeJSON(w, http.StatusAccepted, ConfirmCheckoutResp{
		OrderID: o.ID, OrderNo: o.OrderNo, TotalCents: o.TotalCents, Idempotent: existed,
	})
}

func (h *CheckoutHandler) publishCreated(o orders.Order, calc checkout.Calculation, trace string) {
	items := make([]orders.ItemQty, 0, len(calc.Items))
	for pid, qty := range calc.Items {
		items = append(items, orders.ItemQty{ProductID: pid, Qty: qty})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID: o.ID, OrderNo: o.OrderNo, CustomerID: o.CustomerID,
			Items: items, TotalCents: o.TotalCents,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

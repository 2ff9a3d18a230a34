package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kimiashop/orderflow/internal/delivery"
	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type DeliveryHandler struct {
	Repo     OrderStore
	Delivery *delivery.Service
	Redis    *redis.Client
	Log      zerolog.Logger
}

func (h *DeliveryHandler) Register(r *chi.Mux) {
	r.Post("/delivery/verify", h.verify)
}

type VerifyReq struct {
	OrderID string `json:"order_id"`
	Code    string `json:"code"`
	Courier string `json:"courier"`
	Notes   string `json:"notes,omitempty"`
}

type VerifyResp struct {
	OrderID  string `json:"order_id"`
	Verified bool   `json:"verified"`
	Status   string `json:"status"`
}

func (h *DeliveryHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errs.New(errs.KindValidation, "invalid json"))
		return
	}
	if req.OrderID == "" || req.Code == "" || req.Courier == "" {
		writeErr(w, errs.New(errs.KindValidation, "missing fields"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Delivery.Verify(ctx, req.OrderID, req.Code, req.Courier, req.Notes); err != nil {
		writeErr(w, err)
		return
	}

	o, err := h.Repo.Transition(ctx, req.OrderID, orders.StatusDelivered, "")
	if err != nil {
		// code consumed but status stuck; surface the conflict, keep the audit
		h.Log.Error().Err(err).Str("order_id", req.OrderID).Msg("delivered transition failed after verify")
		writeErr(w, err)
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID)).Err()

	writeJSON(w, http.StatusOK, VerifyResp{OrderID: o.ID, Verified: true, Status: string(o.Status)})
}

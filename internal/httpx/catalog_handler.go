package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kimiashop/orderflow/internal/catalog"
	"github.com/kimiashop/orderflow/internal/errs"
)

type CatalogHandler struct {
	Repo *catalog.Repo
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listShop)
	r.Get("/showcase", h.listShowcase)
	r.Post("/showcase/{id}/barcode", h.assignBarcode)
}

func (h *CatalogHandler) listShop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListShop(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) listShowcase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListShowcase(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type AssignBarcodeReq struct {
	Article int `json:"article"`
}

func (h *CatalogHandler) assignBarcode(w http.ResponseWriter, r *http.Request) {
	var req AssignBarcodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errs.New(errs.KindValidation, "invalid json"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	code, err := h.Repo.AssignBarcode(ctx, chi.URLParam(r, "id"), req.Article)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"barcode": code})
}

package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kimiashop/orderflow/internal/checkout"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutHandler(store *fakeOrderStore, cache checkout.Cache) *CheckoutHandler {
	log := zerolog.Nop()
	return &CheckoutHandler{
		Cache:    cache,
		Repo:     store,
		Producer: kafkax.NewProducer([]string{"127.0.0.1:1"}, orders.TopicOrderCreated, 16, log),
		Redis:    redisx.New("127.0.0.1:1"),
		Service:  "orders-api-test",
		Log:      log,
	}
}

func serveCheckout(h *CheckoutHandler, target string, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body)))
	return rec
}

func TestConfirmCreatesOrderFromCachedCalculation(t *testing.T) {
	store := newFakeOrderStore()
	cache := checkout.NewMemoryCache(30 * time.Minute)
	h := newCheckoutHandler(store, cache)

	calc := checkout.Calculation{
		OrderNo:    "ORD-1700000000000-1001",
		GuestPhone: "+46700001001",
		Items:      map[string]int{uuid.NewString(): 2},
		TotalCents: 250_00,
	}
	require.NoError(t, cache.Store(context.Background(), calc))

	rec := serveCheckout(h, "/checkout/confirm", []byte(`{"order_no":"ORD-1700000000000-1001"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ConfirmCheckoutResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Idempotent)
	assert.Equal(t, int64(250_00), resp.TotalCents)

	// the cached calculation is gone once the order exists
	_, err := cache.Get(context.Background(), calc.OrderNo)
	assert.Error(t, err)

	// a replayed confirm finds the order by number even with the
	// idempotency cache unreachable
	rec = serveCheckout(h, "/checkout/confirm", []byte(`{"order_no":"ORD-1700000000000-1001"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Idempotent)
	assert.Len(t, store.byID, 1)
}

func TestConfirmRejectsMalformedOrderNumber(t *testing.T) {
	h := newCheckoutHandler(newFakeOrderStore(), checkout.NewMemoryCache(time.Minute))

	rec := serveCheckout(h, "/checkout/confirm", []byte(`{"order_no":"ORD-123-1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmUnknownOrderNumber(t *testing.T) {
	h := newCheckoutHandler(newFakeOrderStore(), checkout.NewMemoryCache(time.Minute))

	rec := serveCheckout(h, "/checkout/confirm", []byte(`{"order_no":"ORD-1700000000000-9999"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "kimiashop")
	require.NoError(t, c.Send(context.Background(), "+989121234567", "code 1234"))
	assert.Equal(t, "+989121234567", got.To)
	assert.Equal(t, "kimiashop", got.From)
	assert.Equal(t, "code 1234", got.Text)
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "balance exhausted", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "kimiashop")
	err := c.Send(context.Background(), "+989121234567", "x")
	assert.True(t, errs.Is(err, errs.KindExternalService))
	assert.Contains(t, err.Error(), "402")
}

func TestSendUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "secret", "kimiashop")
	err := c.Send(context.Background(), "+989121234567", "x")
	assert.True(t, errs.Is(err, errs.KindExternalService))
}

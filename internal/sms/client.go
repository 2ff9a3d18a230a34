// Package sms talks to the HTTP SMS provider used for delivery codes.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
)

type Client struct {
	BaseURL string
	APIKey  string
	Sender  string

	HTTP *http.Client
}

func NewClient(baseURL, apiKey, sender string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Sender:  sender,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

func (c *Client) Send(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(sendRequest{To: phone, From: c.Sender, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindExternalService, "sms provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Wrap(errs.KindExternalService, "sms provider error",
			fmt.Errorf("status %d: %s", resp.StatusCode, b))
	}
	return nil
}

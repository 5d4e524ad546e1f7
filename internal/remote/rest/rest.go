// Package rest implements remote.Client against the papertrade HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

// Client talks to the backend over HTTP with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the given base URL (e.g. "http://localhost:8080").
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type holdingPayload struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type portfolioResponse struct {
	UserID      uuid.UUID        `json:"user_id"`
	CashBalance decimal.Decimal  `json:"cash_balance"`
	Holdings    []holdingPayload `json:"holdings"`
}

type ordersResponse struct {
	Orders []remote.OrderRecord `json:"orders"`
}

type priceResponse struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

// Account implements remote.Client.
func (c *Client) Account(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var resp portfolioResponse
	if err := c.do(ctx, http.MethodGet, "/api/portfolio", nil, &resp); err != nil {
		return nil, err
	}

	acct := models.NewAccount(resp.UserID, resp.CashBalance)
	for _, h := range resp.Holdings {
		acct.SetHolding(h.Ticker, h.Quantity)
	}
	return acct, nil
}

// Orders implements remote.Client.
func (c *Client) Orders(ctx context.Context, userID uuid.UUID) ([]remote.OrderRecord, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// SubmitOrder implements remote.Client.
func (c *Client) SubmitOrder(ctx context.Context, req remote.SubmitRequest) (uuid.UUID, error) {
	var resp remote.OrderRecord
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

// Price implements remote.Client.
func (c *Client) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var resp priceResponse
	if err := c.do(ctx, http.MethodGet, "/api/prices/"+ticker, nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Price, nil
}

// do performs one request, decoding a JSON body into out on 2xx and mapping
// error responses onto the local taxonomy otherwise.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s %s: %v", models.ErrRemoteUnavailable, method, path, err)
		}
		return nil
	}

	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
		if sentinel := models.ErrorFromCode(apiErr.Code); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, apiErr.Error)
		}
		if apiErr.Error != "" && resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s %s: %s (status %d)",
				models.ErrRemoteUnavailable, method, path, apiErr.Error, resp.StatusCode)
		}
	}
	return fmt.Errorf("%w: %s %s: status %d", models.ErrRemoteUnavailable, method, path, resp.StatusCode)
}

var _ remote.Client = (*Client)(nil)

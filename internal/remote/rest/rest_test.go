package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

func TestAccountDecodesPortfolio(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/portfolio", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"user_id":      userID,
			"cash_balance": "8252.10",
			"holdings": []map[string]any{
				{"ticker": "AAPL", "quantity": 10},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token")
	acct, err := client.Account(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, acct.UserID)
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("8252.10")))
	assert.Equal(t, int64(10), acct.Holding("AAPL"))
}

func TestOrdersDecodesList(t *testing.T) {
	orderID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"orders": []map[string]any{
				{
					"id":             orderID,
					"ticker":         "AAPL",
					"side":           "buy",
					"execution_type": "market",
					"price":          "174.79",
					"size":           10,
					"status":         "completed",
				},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	records, err := client.Orders(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, orderID, records[0].ID)
	assert.Equal(t, models.RemoteCompleted, records[0].Status)

	order, err := records[0].ToOrder()
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, order.Status)
	assert.Equal(t, models.Buy, order.Side)
}

func TestSubmitOrderReturnsAssignedID(t *testing.T) {
	assigned := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req remote.SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req.Ticker)
		assert.Equal(t, "buy", req.Side)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     assigned,
			"ticker": req.Ticker,
			"status": "pending",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	id, err := client.SubmitOrder(context.Background(), remote.SubmitRequest{
		Ticker: "AAPL",
		Side:   "buy",
		Price:  decimal.RequireFromString("174.79"),
		Size:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, assigned, id)
}

func TestStructuredRejectionMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "need 17479.00, have 10000.00",
			"code":  "insufficient_funds",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.SubmitOrder(context.Background(), remote.SubmitRequest{})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestServerErrorMapsToRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.Orders(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
}

func TestTransportFailureMapsToRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(srv.URL, "")
	_, err := client.Account(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
}

func TestPriceDecodesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prices/NVDA", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"ticker": "NVDA",
			"price":  "950.02",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	price, err := client.Price(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("950.02")))
}

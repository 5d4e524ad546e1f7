// Package remote defines the contract with the authoritative backend. The
// client core only ever sees this interface; the concrete transport (REST,
// or the in-memory simulator) is chosen at session construction.
package remote

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
)

// OrderRecord is an order as reported by the backend, still speaking the
// remote status vocabulary ("pending"/"working"/"completed").
type OrderRecord struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Ticker        string          `json:"ticker"`
	Side          string          `json:"side"`
	ExecutionType string          `json:"execution_type"`
	Price         decimal.Decimal `json:"price"`
	Size          int64           `json:"size"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToOrder maps a record onto the local model, translating the status
// vocabulary at the boundary.
func (r OrderRecord) ToOrder() (*models.Order, error) {
	side, err := models.ParseSide(r.Side)
	if err != nil {
		return nil, err
	}
	execType, err := models.ParseExecutionType(r.ExecutionType)
	if err != nil {
		return nil, err
	}
	return &models.Order{
		ID:            r.ID,
		UserID:        r.UserID,
		Ticker:        r.Ticker,
		Side:          side,
		ExecutionType: execType,
		Price:         r.Price,
		Size:          r.Size,
		Status:        models.OrderStatusFromRemote(r.Status),
		Timestamp:     r.CreatedAt,
	}, nil
}

// SubmitRequest is a new order as pushed to the backend.
type SubmitRequest struct {
	UserID        uuid.UUID       `json:"user_id"`
	Ticker        string          `json:"ticker"`
	Side          string          `json:"side"`
	ExecutionType string          `json:"execution_type"`
	Price         decimal.Decimal `json:"price"`
	Size          int64           `json:"size"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Client is the request/response surface of the authoritative backend.
// Balance correction is intentionally absent: balances move only through
// settled orders.
type Client interface {
	// Account fetches the authoritative balance and holdings.
	Account(ctx context.Context, userID uuid.UUID) (*models.Account, error)

	// Orders fetches the authoritative order history and status.
	Orders(ctx context.Context, userID uuid.UUID) ([]OrderRecord, error)

	// SubmitOrder pushes a new order and returns its assigned id.
	// Structured rejections come back as taxonomy errors; transport
	// failures as ErrRemoteUnavailable.
	SubmitOrder(ctx context.Context, req SubmitRequest) (uuid.UUID, error)

	// Price returns the current reference price for a ticker, used to
	// resolve Market orders at submission time.
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Package mock is a deterministic in-memory stand-in for the backend. It
// keeps its own authoritative account and order list, and order fills are
// driven by explicit Acknowledge/Execute calls rather than timers, so tests
// and the demo can step the lifecycle one transition at a time.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/prices"
	"github.com/user/papertrade/internal/remote"
)

// Remote implements remote.Client against in-memory state.
type Remote struct {
	mu        sync.Mutex
	account   *models.Account
	orders    []*remote.OrderRecord
	byID      map[uuid.UUID]*remote.OrderRecord
	submitErr error
	now       func() time.Time
}

// New returns a mock backend owning an account with the given balance.
func New(userID uuid.UUID, startingBalance decimal.Decimal) *Remote {
	return &Remote{
		account: models.NewAccount(userID, startingBalance),
		byID:    make(map[uuid.UUID]*remote.OrderRecord),
		now:     time.Now,
	}
}

// FailSubmissions makes subsequent SubmitOrder calls fail with err.
// Pass nil to restore normal behavior.
func (m *Remote) FailSubmissions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

// Account returns a deep copy of the authoritative account.
func (m *Remote) Account(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID != m.account.UserID {
		return nil, fmt.Errorf("%w: unknown user %s", models.ErrRemoteUnavailable, userID)
	}
	return m.account.Clone(), nil
}

// Orders returns copies of all order records for the user.
func (m *Remote) Orders(ctx context.Context, userID uuid.UUID) ([]remote.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]remote.OrderRecord, 0, len(m.orders))
	for _, r := range m.orders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// SubmitOrder records a pending order after validating it against the
// authoritative account, and returns its assigned id.
func (m *Remote) SubmitOrder(ctx context.Context, req remote.SubmitRequest) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitErr != nil {
		return uuid.Nil, m.submitErr
	}

	side, err := models.ParseSide(req.Side)
	if err != nil {
		return uuid.Nil, err
	}
	if req.Size <= 0 || !req.Price.IsPositive() || req.Ticker == "" {
		return uuid.Nil, fmt.Errorf("%w: ticker %q size %d price %s",
			models.ErrInvalidOrder, req.Ticker, req.Size, req.Price)
	}
	total := req.Price.Mul(decimal.NewFromInt(req.Size))
	if side == models.Buy && total.GreaterThan(m.account.CashBalance) {
		return uuid.Nil, models.ErrInsufficientFunds
	}
	if side == models.Sell && m.account.Holding(req.Ticker) < req.Size {
		return uuid.Nil, models.ErrInsufficientHoldings
	}

	record := &remote.OrderRecord{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Ticker:        req.Ticker,
		Side:          req.Side,
		ExecutionType: req.ExecutionType,
		Price:         req.Price,
		Size:          req.Size,
		Status:        models.RemotePending,
		CreatedAt:     m.now(),
	}
	m.orders = append(m.orders, record)
	m.byID[record.ID] = record
	return record.ID, nil
}

// Price resolves the reference price for a known demo ticker.
func (m *Remote) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	return prices.Reference(ticker)
}

// Acknowledge moves a pending order to working.
func (m *Remote) Acknowledge(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if record.Status != models.RemotePending {
		return fmt.Errorf("%w: order %s is %s", models.ErrIllegalTransition, id, record.Status)
	}
	record.Status = models.RemoteWorking
	return nil
}

// Execute moves a working order to completed and settles it against the
// authoritative account.
func (m *Remote) Execute(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if record.Status != models.RemoteWorking {
		return fmt.Errorf("%w: order %s is %s", models.ErrIllegalTransition, id, record.Status)
	}

	total := record.Price.Mul(decimal.NewFromInt(record.Size))
	side, _ := models.ParseSide(record.Side)
	switch side {
	case models.Buy:
		m.account.CashBalance = m.account.CashBalance.Sub(total)
		m.account.SetHolding(record.Ticker, m.account.Holding(record.Ticker)+record.Size)
	case models.Sell:
		m.account.CashBalance = m.account.CashBalance.Add(total)
		m.account.SetHolding(record.Ticker, m.account.Holding(record.Ticker)-record.Size)
	}
	record.Status = models.RemoteCompleted
	return nil
}

// Fill acknowledges and executes an order in one call.
func (m *Remote) Fill(id uuid.UUID) error {
	if err := m.Acknowledge(id); err != nil {
		return err
	}
	return m.Execute(id)
}

// FillAll drives every pending order through to completion, in submission
// order.
func (m *Remote) FillAll() error {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.orders))
	for _, r := range m.orders {
		if r.Status == models.RemotePending {
			ids = append(ids, r.ID)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Fill(id); err != nil {
			return err
		}
	}
	return nil
}

var _ remote.Client = (*Remote)(nil)

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a registered user.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // Store hash, exclude from JSON responses
	CreatedAt time.Time `json:"created_at"`
}

// Account holds the cash balance and share holdings for one user.
// Invariants: CashBalance is never negative; a holding entry is present
// only while its quantity is strictly positive.
type Account struct {
	UserID      uuid.UUID        `json:"user_id"`
	CashBalance decimal.Decimal  `json:"cash_balance"`
	Holdings    map[string]int64 `json:"holdings"` // ticker -> share quantity
}

// NewAccount creates an account with the given starting balance and no holdings.
func NewAccount(userID uuid.UUID, startingBalance decimal.Decimal) *Account {
	return &Account{
		UserID:      userID,
		CashBalance: startingBalance,
		Holdings:    make(map[string]int64),
	}
}

// Holding returns the share quantity held for ticker, zero if absent.
func (a *Account) Holding(ticker string) int64 {
	return a.Holdings[ticker]
}

// SetHolding sets the quantity for ticker, removing the entry at zero.
func (a *Account) SetHolding(ticker string, quantity int64) {
	if quantity <= 0 {
		delete(a.Holdings, ticker)
		return
	}
	a.Holdings[ticker] = quantity
}

// ReplaceWith overwrites balance and holdings wholesale from another
// snapshot. Used by reconciliation: the remote copy is authoritative.
func (a *Account) ReplaceWith(remote *Account) {
	a.CashBalance = remote.CashBalance
	a.Holdings = make(map[string]int64, len(remote.Holdings))
	for ticker, qty := range remote.Holdings {
		if qty > 0 {
			a.Holdings[ticker] = qty
		}
	}
}

// Clone returns a deep copy, used for dry-run validation snapshots.
func (a *Account) Clone() *Account {
	c := &Account{
		UserID:      a.UserID,
		CashBalance: a.CashBalance,
		Holdings:    make(map[string]int64, len(a.Holdings)),
	}
	for ticker, qty := range a.Holdings {
		c.Holdings[ticker] = qty
	}
	return c
}

// Order is a single buy/sell instruction and its lifecycle status.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Ticker        string          `json:"ticker"`
	Side          Side            `json:"side"`
	ExecutionType ExecutionType   `json:"execution_type"`
	Price         decimal.Decimal `json:"price"`
	Size          int64           `json:"size"`
	Status        OrderStatus     `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TotalCost is price * size, computed in exact decimal arithmetic.
func (o *Order) TotalCost() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Size))
}

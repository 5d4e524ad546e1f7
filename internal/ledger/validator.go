// Package ledger implements the session-local order ledger: admission
// validation, the order collection with its lifecycle state machine, and
// the settlement engine that applies completed orders to an account.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
)

// Proposal is a not-yet-created order as entered by the user.
type Proposal struct {
	Ticker        string
	Side          models.Side
	ExecutionType models.ExecutionType
	Price         decimal.Decimal
	Size          int64
}

// NormalizedTicker returns the ticker trimmed and upper-cased.
func (p Proposal) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(p.Ticker))
}

// TotalCost is price * size in exact decimal arithmetic.
func (p Proposal) TotalCost() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.Size))
}

// ValidateOrder decides admit or reject for a proposal against an account
// snapshot. It is pure: no side effects on the account, so it can be re-run
// for dry-run previews.
func ValidateOrder(acct *models.Account, p Proposal) error {
	ticker := p.NormalizedTicker()
	if ticker == "" {
		return fmt.Errorf("%w: empty ticker", models.ErrInvalidOrder)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", models.ErrInvalidOrder, p.Size)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", models.ErrInvalidOrder, p.Price)
	}
	if p.Side != models.Buy && p.Side != models.Sell {
		return fmt.Errorf("%w: side %q", models.ErrInvalidOrder, p.Side)
	}
	if p.ExecutionType != models.Market && p.ExecutionType != models.Limit {
		return fmt.Errorf("%w: execution type %q", models.ErrInvalidOrder, p.ExecutionType)
	}

	switch p.Side {
	case models.Buy:
		if total := p.TotalCost(); total.GreaterThan(acct.CashBalance) {
			return fmt.Errorf("%w: need %s, have %s",
				models.ErrInsufficientFunds, total, acct.CashBalance)
		}
	case models.Sell:
		if held := acct.Holding(ticker); held < p.Size {
			return fmt.Errorf("%w: selling %d %s, holding %d",
				models.ErrInsufficientHoldings, p.Size, ticker, held)
		}
	}
	return nil
}

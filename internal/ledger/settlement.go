package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/user/papertrade/internal/models"
)

// SettlementEngine applies the economic effect of completed orders to an
// account, at most once per order id. The settled-set is the structural
// guard against double-applying a completion delivered more than once by
// an at-least-once remote poll.
type SettlementEngine struct {
	mu      sync.Mutex
	settled map[uuid.UUID]struct{}
}

// NewSettlementEngine returns an engine with an empty settled-set.
func NewSettlementEngine() *SettlementEngine {
	return &SettlementEngine{settled: make(map[uuid.UUID]struct{})}
}

// Apply mutates acct with the effect of a completed order: a buy debits
// cash and credits the holding, a sell credits cash and debits the holding,
// removing the entry when it reaches zero. A second Apply for the same
// order id returns ErrDuplicateSettlement and leaves acct untouched.
//
// Side effects are confined to acct; persisting the result is the sync
// coordinator's job.
func (e *SettlementEngine) Apply(acct *models.Account, order *models.Order) error {
	if order.Status != models.StatusCompleted {
		return fmt.Errorf("%w: order %s is %s, not %s",
			models.ErrIllegalTransition, order.ID, order.Status, models.StatusCompleted)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, done := e.settled[order.ID]; done {
		return fmt.Errorf("%w: order %s", models.ErrDuplicateSettlement, order.ID)
	}

	total := order.TotalCost()
	switch order.Side {
	case models.Buy:
		newBalance := acct.CashBalance.Sub(total)
		if newBalance.IsNegative() {
			return fmt.Errorf("settle buy %s: balance %s cannot cover %s",
				order.ID, acct.CashBalance, total)
		}
		acct.CashBalance = newBalance
		acct.SetHolding(order.Ticker, acct.Holding(order.Ticker)+order.Size)
	case models.Sell:
		held := acct.Holding(order.Ticker)
		if held < order.Size {
			return fmt.Errorf("settle sell %s: holding %d %s cannot cover %d",
				order.ID, held, order.Ticker, order.Size)
		}
		acct.CashBalance = acct.CashBalance.Add(total)
		acct.SetHolding(order.Ticker, held-order.Size)
	default:
		return fmt.Errorf("%w: side %q", models.ErrInvalidOrder, order.Side)
	}

	e.settled[order.ID] = struct{}{}
	return nil
}

// Settled reports whether the order id has already been applied.
func (e *SettlementEngine) Settled(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, done := e.settled[id]
	return done
}

// MarkSettled records an order id without applying it. Used when the
// account snapshot arriving from the remote already reflects the order, so
// applying it locally would double count.
func (e *SettlementEngine) MarkSettled(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settled[id] = struct{}{}
}

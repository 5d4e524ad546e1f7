package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/papertrade/internal/models"
)

// Ledger owns the session's orders. Orders are kept in insertion order,
// created in Processing, and only ever transitioned forward one state at a
// time. Orders are never deleted once acknowledged; Retract exists solely
// to undo an optimistic entry whose push to the backend failed.
type Ledger struct {
	mu     sync.Mutex
	orders []*models.Order
	byID   map[uuid.UUID]*models.Order
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{byID: make(map[uuid.UUID]*models.Order)}
}

// Submit validates a proposal against the account snapshot and, on success,
// records a new Processing order with a client-assigned id. The account is
// not touched; settlement happens only at completion.
func (l *Ledger) Submit(acct *models.Account, p Proposal) (*models.Order, error) {
	if err := ValidateOrder(acct, p); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        acct.UserID,
		Ticker:        p.NormalizedTicker(),
		Side:          p.Side,
		ExecutionType: p.ExecutionType,
		Price:         p.Price,
		Size:          p.Size,
		Status:        models.StatusProcessing,
		Timestamp:     time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.insertLocked(order)
	return order, nil
}

// Transition moves an order a single step forward in its lifecycle.
func (l *Ledger) Transition(id uuid.UUID, next models.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transitionLocked(id, next)
}

func (l *Ledger) transitionLocked(id uuid.UUID, next models.OrderStatus) error {
	order, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if !order.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s for order %s",
			models.ErrIllegalTransition, order.Status, next, id)
	}
	order.Status = next
	return nil
}

// AdvanceTo steps an order through intermediate states until it reaches
// target, so no observer ever sees a skipped state. It returns the states
// actually entered, in order. A target at or behind the current state is a
// no-op, not an error: reconciliation may deliver stale statuses.
func (l *Ledger) AdvanceTo(id uuid.UUID, target models.OrderStatus) ([]models.OrderStatus, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrIllegalTransition, target)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}

	var entered []models.OrderStatus
	for order.Status.Before(target) {
		next := nextStatus(order.Status)
		if err := l.transitionLocked(id, next); err != nil {
			return entered, err
		}
		entered = append(entered, next)
	}
	return entered, nil
}

func nextStatus(s models.OrderStatus) models.OrderStatus {
	if s == models.StatusProcessing {
		return models.StatusInProgress
	}
	return models.StatusCompleted
}

// Retract removes an optimistic order after a failed push. Only a
// Processing order may be retracted; anything further along has been
// acknowledged by the backend and must be reconciled instead.
func (l *Ledger) Retract(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if order.Status != models.StatusProcessing {
		return fmt.Errorf("%w: cannot retract %s order %s",
			models.ErrIllegalTransition, order.Status, id)
	}
	l.removeLocked(id)
	return nil
}

// Adopt replaces the client-assigned id of an optimistic order with the
// authoritative id returned by the backend. If an order with remoteID is
// already present (a poll raced the push response), the optimistic entry is
// dropped and the polled copy stands: de-duplication by id.
func (l *Ledger) Adopt(tempID, remoteID uuid.UUID) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.byID[tempID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, tempID)
	}
	if existing, ok := l.byID[remoteID]; ok {
		l.removeLocked(tempID)
		return existing, nil
	}
	delete(l.byID, tempID)
	order.ID = remoteID
	l.byID[remoteID] = order
	return order, nil
}

// Merge reconciles the ledger with the authoritative remote order list.
// Remote wins: known orders advance to the remote status (never regress),
// unknown remote orders are inserted as reported, and local Processing
// orders absent remotely are kept, since their push may still be in flight.
func (l *Ledger) Merge(remote []*models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range remote {
		local, ok := l.byID[r.ID]
		if !ok {
			clone := *r
			l.insertLocked(&clone)
			continue
		}
		for local.Status.Before(r.Status) {
			if err := l.transitionLocked(local.ID, nextStatus(local.Status)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the order with the given id, or nil.
func (l *Ledger) Get(id uuid.UUID) *models.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byID[id]
}

// All returns the orders in insertion order.
func (l *Ledger) All() []*models.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// ByStatus filters orders by status, preserving insertion order.
func (l *Ledger) ByStatus(status models.OrderStatus) []*models.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Order, 0)
	for _, o := range l.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// CompletedOrders returns all orders in the terminal state.
func (l *Ledger) CompletedOrders() []*models.Order {
	return l.ByStatus(models.StatusCompleted)
}

func (l *Ledger) insertLocked(order *models.Order) {
	l.orders = append(l.orders, order)
	l.byID[order.ID] = order
}

func (l *Ledger) removeLocked(id uuid.UUID) {
	delete(l.byID, id)
	for i, o := range l.orders {
		if o.ID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			break
		}
	}
}

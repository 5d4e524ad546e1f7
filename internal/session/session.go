// Package session ties the client core together: one Session per logged-in
// user owns the Account, the order Ledger, and the settlement engine, and
// reconciles them with the authoritative backend through a remote.Client.
//
// Local state is optimistic display state only. Every pull from the backend
// overrides it: the remote copy is the single source of truth.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/ledger"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

// Session is the per-login portfolio state and its sync coordinator.
// All mutations of the account and ledger are serialized by one mutex, so
// a submit never observes a half-applied settlement.
type Session struct {
	mu     sync.Mutex
	acct   *models.Account
	orders *ledger.Ledger
	engine *ledger.SettlementEngine

	// refreshMu keeps the poller and on-demand refreshes from running
	// concurrently; the later caller is dropped.
	refreshMu sync.Mutex

	remote remote.Client
	log    *zap.Logger
}

// New creates a session for the user. The account starts empty and is
// populated by the first Refresh.
func New(userID uuid.UUID, client remote.Client, log *zap.Logger) *Session {
	return &Session{
		acct:   models.NewAccount(userID, decimal.Zero),
		orders: ledger.New(),
		engine: ledger.NewSettlementEngine(),
		remote: client,
		log:    log,
	}
}

// UserID returns the owning user's id.
func (s *Session) UserID() uuid.UUID {
	return s.acct.UserID
}

// Account returns a snapshot copy of the current account state.
func (s *Session) Account() *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acct.Clone()
}

// Orders returns the ledger's orders in insertion order.
func (s *Session) Orders() []*models.Order { return s.orders.All() }

// OrdersByStatus filters the ledger by status.
func (s *Session) OrdersByStatus(status models.OrderStatus) []*models.Order {
	return s.orders.ByStatus(status)
}

// CompletedOrders returns all terminal orders.
func (s *Session) CompletedOrders() []*models.Order { return s.orders.CompletedOrders() }

// Preview re-runs admission validation without side effects, for dry-run
// feedback in the UI.
func (s *Session) Preview(p ledger.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.ValidateOrder(s.acct, p)
}

// SubmitOrder validates and records an optimistic Processing order, then
// pushes it to the backend. If the push fails the optimistic order is
// retracted — it never happened — and the failure is returned. On success
// the order adopts the backend-assigned id.
func (s *Session) SubmitOrder(ctx context.Context, p ledger.Proposal) (*models.Order, error) {
	if p.ExecutionType == models.Market {
		price, err := s.remote.Price(ctx, p.NormalizedTicker())
		if err != nil {
			if errors.Is(err, models.ErrUnknownTicker) {
				return nil, fmt.Errorf("%w: no price for %q", models.ErrInvalidOrder, p.Ticker)
			}
			return nil, fmt.Errorf("%w: price lookup: %v", models.ErrRemoteUnavailable, err)
		}
		p.Price = price
	}

	s.mu.Lock()
	order, err := s.orders.Submit(s.acct, p)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	tempID := order.ID
	remoteID, err := s.remote.SubmitOrder(ctx, remote.SubmitRequest{
		UserID:        s.acct.UserID,
		Ticker:        order.Ticker,
		Side:          order.Side.Remote(),
		ExecutionType: order.ExecutionType.Remote(),
		Price:         order.Price,
		Size:          order.Size,
		TotalAmount:   order.TotalCost(),
	})
	if err != nil {
		s.mu.Lock()
		if retractErr := s.orders.Retract(tempID); retractErr != nil {
			// The order advanced past Processing while the push was in
			// flight; a poll reconciled it already. Keep it.
			s.log.Warn("push failed but order no longer retractable",
				zap.Stringer("order_id", tempID), zap.Error(retractErr))
		}
		s.mu.Unlock()

		if code := models.ErrorCode(err); code != "" {
			return nil, err // structured rejection, user-correctable
		}
		return nil, fmt.Errorf("%w: submit: %v", models.ErrRemoteUnavailable, err)
	}

	s.mu.Lock()
	adopted, adoptErr := s.orders.Adopt(tempID, remoteID)
	s.mu.Unlock()
	if adoptErr != nil {
		return nil, fmt.Errorf("%w: adopt %s: %v",
			models.ErrReconciliationConflict, remoteID, adoptErr)
	}

	s.log.Info("order submitted",
		zap.Stringer("order_id", adopted.ID),
		zap.String("ticker", adopted.Ticker),
		zap.String("side", string(adopted.Side)),
		zap.Int64("size", adopted.Size),
		zap.String("price", adopted.Price.String()))
	return adopted, nil
}

// RefreshAccount pulls the authoritative balance and holdings and replaces
// local account state wholesale.
func (s *Session) RefreshAccount(ctx context.Context) error {
	remoteAcct, err := s.remote.Account(ctx, s.acct.UserID)
	if err != nil {
		return fmt.Errorf("%w: pull account: %v", models.ErrRemoteUnavailable, err)
	}

	s.mu.Lock()
	s.acct.ReplaceWith(remoteAcct)
	s.mu.Unlock()
	return nil
}

// RefreshOrders pulls the authoritative order list, maps the remote status
// vocabulary, and merges by id. Orders observed transitioning into
// Completed are settled exactly once; orders first seen already Completed
// are marked settled without applying, since the pulled account already
// reflects them.
func (s *Session) RefreshOrders(ctx context.Context) error {
	records, err := s.remote.Orders(ctx, s.acct.UserID)
	if err != nil {
		return fmt.Errorf("%w: pull orders: %v", models.ErrRemoteUnavailable, err)
	}

	mapped := make([]*models.Order, 0, len(records))
	for _, r := range records {
		order, err := r.ToOrder()
		if err != nil {
			return fmt.Errorf("%w: order %s: %v", models.ErrReconciliationConflict, r.ID, err)
		}
		mapped = append(mapped, order)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[uuid.UUID]models.OrderStatus)
	for _, o := range s.orders.All() {
		known[o.ID] = o.Status
	}

	if err := s.orders.Merge(mapped); err != nil {
		return fmt.Errorf("%w: merge: %v", models.ErrReconciliationConflict, err)
	}

	for _, o := range s.orders.CompletedOrders() {
		prev, wasKnown := known[o.ID]
		if !wasKnown {
			// History predating this session; the account pull covers it.
			s.engine.MarkSettled(o.ID)
			continue
		}
		if prev == models.StatusCompleted {
			continue
		}
		if err := s.engine.Apply(s.acct, o); err != nil {
			if errors.Is(err, models.ErrDuplicateSettlement) {
				continue // at-least-once delivery, absorbed by the settled-set
			}
			return fmt.Errorf("settle order %s: %w", o.ID, err)
		}
		s.log.Info("order settled",
			zap.Stringer("order_id", o.ID),
			zap.String("ticker", o.Ticker),
			zap.String("balance", s.acct.CashBalance.String()))
	}
	return nil
}

// Refresh reconciles orders first, then the account, so the final account
// snapshot is never older than the settlements it implies. Concurrent
// refreshes do not interleave; the later caller is dropped.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.refreshMu.TryLock() {
		s.log.Debug("refresh already running, dropping")
		return nil
	}
	defer s.refreshMu.Unlock()

	if err := s.RefreshOrders(ctx); err != nil {
		return err
	}
	return s.RefreshAccount(ctx)
}

// Poll refreshes every interval until ctx is cancelled.
func (s *Session) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("poller stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("poll refresh failed", zap.Error(err))
			}
		}
	}
}

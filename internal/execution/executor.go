// Package execution drives submitted orders through their lifecycle:
// pending -> working -> completed, settling the account as each order
// finishes. Transitions are driven by acknowledgment (the submit channel
// and guarded database updates), never by timers.
package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/database"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

// EventPublisher receives order lifecycle events for broadcast.
type EventPublisher interface {
	PublishOrder(record remote.OrderRecord)
}

// Executor consumes submitted order ids and executes them one at a time.
type Executor struct {
	pool     *pgxpool.Pool
	accounts *database.AccountStore
	orders   *database.OrderStore
	events   EventPublisher
	queue    chan uuid.UUID
	log      *zap.Logger
}

// New builds an executor; call Run to start consuming.
func New(pool *pgxpool.Pool, accounts *database.AccountStore, orders *database.OrderStore, events EventPublisher, log *zap.Logger) *Executor {
	return &Executor{
		pool:     pool,
		accounts: accounts,
		orders:   orders,
		events:   events,
		queue:    make(chan uuid.UUID, 128),
		log:      log,
	}
}

// Submit queues a freshly inserted order for execution. The channel send
// is the acknowledgment that moves the order out of pending.
func (e *Executor) Submit(orderID uuid.UUID) {
	e.queue <- orderID
}

// Run consumes the queue until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) {
	e.log.Info("executor started")
	for {
		select {
		case <-ctx.Done():
			e.log.Info("executor stopped")
			return
		case orderID := <-e.queue:
			if err := e.process(ctx, orderID); err != nil {
				e.log.Error("execute order failed",
					zap.Stringer("order_id", orderID), zap.Error(err))
			}
		}
	}
}

func (e *Executor) process(ctx context.Context, orderID uuid.UUID) error {
	acked, err := e.orders.MarkWorking(ctx, orderID)
	if err != nil {
		return err
	}
	record, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, orderID)
	}
	if acked {
		e.events.PublishOrder(*record)
	}
	if record.Status == models.RemoteCompleted {
		return nil // duplicate submission of a finished order
	}
	return e.settle(ctx, record)
}

// settle applies the order's economic effect in one transaction. The
// guarded completion update makes it idempotent: if another attempt got
// there first, zero rows change and the balance mutation is skipped.
func (e *Executor) settle(ctx context.Context, record *remote.OrderRecord) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settle %s: %w", record.ID, err)
	}
	defer tx.Rollback(ctx)

	completed, err := e.orders.MarkCompleted(ctx, tx, record.ID)
	if err != nil {
		return err
	}
	if !completed {
		return nil // already settled
	}

	total := record.Price.Mul(decimal.NewFromInt(record.Size))
	side, err := models.ParseSide(record.Side)
	if err != nil {
		return err
	}
	switch side {
	case models.Buy:
		err = e.accounts.SettleBuy(ctx, tx, record.UserID, record.Ticker, total, record.Size)
	case models.Sell:
		err = e.accounts.SettleSell(ctx, tx, record.UserID, record.Ticker, total, record.Size)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settle %s: %w", record.ID, err)
	}

	record.Status = models.RemoteCompleted
	e.events.PublishOrder(*record)
	e.log.Info("order completed",
		zap.Stringer("order_id", record.ID),
		zap.Stringer("user_id", record.UserID),
		zap.String("ticker", record.Ticker),
		zap.String("side", record.Side),
		zap.Int64("size", record.Size),
		zap.String("total", total.String()))
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

// OrderStore persists orders in the wire vocabulary
// (pending/working/completed). Status changes are guarded updates so the
// executor can never complete an order twice.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore wraps the pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, user_id, ticker, side, execution_type, price::text, size, status, created_at`

func scanOrder(row pgx.Row) (*remote.OrderRecord, error) {
	record := &remote.OrderRecord{}
	var priceText string
	err := row.Scan(&record.ID, &record.UserID, &record.Ticker, &record.Side,
		&record.ExecutionType, &priceText, &record.Size, &record.Status, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.Price, err = decimal.NewFromString(priceText)
	if err != nil {
		return nil, fmt.Errorf("parse order price: %w", err)
	}
	return record, nil
}

// Insert creates a pending order within tx, assigning id and timestamp.
func (s *OrderStore) Insert(ctx context.Context, tx pgx.Tx, record *remote.OrderRecord) error {
	query := `INSERT INTO orders (user_id, ticker, side, execution_type, price, size, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`

	record.Status = models.RemotePending
	err := tx.QueryRow(ctx, query,
		record.UserID, record.Ticker, record.Side, record.ExecutionType,
		record.Price.String(), record.Size, record.Status,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order for user %s: %w", record.UserID, err)
	}
	return nil
}

// ListByUser returns the user's orders, oldest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]remote.OrderRecord, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
			  WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]remote.OrderRecord, 0)
	for rows.Next() {
		record, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order for user %s: %w", userID, err)
		}
		records = append(records, *record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders for user %s: %w", userID, rows.Err())
	}
	return records, nil
}

// Get returns an order by id, nil if absent.
func (s *OrderStore) Get(ctx context.Context, orderID uuid.UUID) (*remote.OrderRecord, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	record, err := scanOrder(s.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return record, nil
}

// MarkWorking acknowledges a pending order. Returns false when the order
// was not pending, which callers treat as already acknowledged.
func (s *OrderStore) MarkWorking(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
			  WHERE id = $2 AND status = $3`
	cmdTag, err := s.pool.Exec(ctx, query, models.RemoteWorking, orderID, models.RemotePending)
	if err != nil {
		return false, fmt.Errorf("mark order %s working: %w", orderID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// MarkCompleted finishes a working order within the settlement transaction.
// The status guard makes completion idempotent: a second attempt affects
// zero rows and the caller skips the balance mutation.
func (s *OrderStore) MarkCompleted(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
			  WHERE id = $2 AND status = $3`
	cmdTag, err := tx.Exec(ctx, query, models.RemoteCompleted, orderID, models.RemoteWorking)
	if err != nil {
		return false, fmt.Errorf("mark order %s completed: %w", orderID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

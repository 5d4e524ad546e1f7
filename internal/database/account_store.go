package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/user/papertrade/internal/models"
)

// AccountStore persists cash balances and share holdings. Available and
// reserved amounts are tracked separately: submitting an order moves value
// from available to reserved, completion settles out of the reservation,
// and a failed execution releases it back.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore wraps the pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Create inserts an account with the starting balance within tx.
func (s *AccountStore) Create(ctx context.Context, tx pgx.Tx, userID uuid.UUID, startingBalance decimal.Decimal) error {
	query := `INSERT INTO accounts (user_id, cash_balance) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, query, userID, startingBalance.String()); err != nil {
		return fmt.Errorf("create account for user %s: %w", userID, err)
	}
	return nil
}

// Get returns the account's available balance and holdings. Reserved value
// is deliberately excluded: it belongs to in-flight orders.
func (s *AccountStore) Get(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var cashText string
	err := s.pool.QueryRow(ctx,
		`SELECT cash_balance::text FROM accounts WHERE user_id = $1`, userID).
		Scan(&cashText)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("account for user %s: not found", userID)
		}
		return nil, fmt.Errorf("get account for user %s: %w", userID, err)
	}
	cash, err := decimal.NewFromString(cashText)
	if err != nil {
		return nil, fmt.Errorf("parse balance for user %s: %w", userID, err)
	}

	acct := models.NewAccount(userID, cash)

	rows, err := s.pool.Query(ctx,
		`SELECT ticker, quantity FROM holdings WHERE user_id = $1 AND quantity > 0 ORDER BY ticker`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query holdings for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		var quantity int64
		if err := rows.Scan(&ticker, &quantity); err != nil {
			return nil, fmt.Errorf("scan holding for user %s: %w", userID, err)
		}
		acct.SetHolding(ticker, quantity)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holdings for user %s: %w", userID, rows.Err())
	}
	return acct, nil
}

// ReserveCash moves amount from available to reserved, failing with
// ErrInsufficientFunds when the available balance cannot cover it.
func (s *AccountStore) ReserveCash(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: reserve amount %s", models.ErrInvalidOrder, amount)
	}
	query := `UPDATE accounts
			  SET cash_balance = cash_balance - $1,
			      reserved_cash = reserved_cash + $1,
			      updated_at = NOW()
			  WHERE user_id = $2 AND cash_balance >= $1`

	cmdTag, err := tx.Exec(ctx, query, amount.String(), userID)
	if err != nil {
		return fmt.Errorf("reserve cash for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: cannot reserve %s for user %s",
			models.ErrInsufficientFunds, amount, userID)
	}
	return nil
}

// ReleaseCash returns a reservation to the available balance.
func (s *AccountStore) ReleaseCash(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE accounts
			  SET cash_balance = cash_balance + $1,
			      reserved_cash = reserved_cash - $1,
			      updated_at = NOW()
			  WHERE user_id = $2 AND reserved_cash >= $1`

	cmdTag, err := tx.Exec(ctx, query, amount.String(), userID)
	if err != nil {
		return fmt.Errorf("release cash for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("release cash for user %s: reservation smaller than %s", userID, amount)
	}
	return nil
}

// ReserveShares moves size shares from available to reserved, failing with
// ErrInsufficientHoldings when the holding cannot cover it.
func (s *AccountStore) ReserveShares(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ticker string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: reserve size %d", models.ErrInvalidOrder, size)
	}
	query := `UPDATE holdings
			  SET quantity = quantity - $1,
			      reserved = reserved + $1,
			      updated_at = NOW()
			  WHERE user_id = $2 AND ticker = $3 AND quantity >= $1`

	cmdTag, err := tx.Exec(ctx, query, size, userID, ticker)
	if err != nil {
		return fmt.Errorf("reserve shares for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: cannot reserve %d %s for user %s",
			models.ErrInsufficientHoldings, size, ticker, userID)
	}
	return nil
}

// ReleaseShares returns a share reservation to the available quantity.
func (s *AccountStore) ReleaseShares(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ticker string, size int64) error {
	query := `UPDATE holdings
			  SET quantity = quantity + $1,
			      reserved = reserved - $1,
			      updated_at = NOW()
			  WHERE user_id = $2 AND ticker = $3 AND reserved >= $1`

	cmdTag, err := tx.Exec(ctx, query, size, userID, ticker)
	if err != nil {
		return fmt.Errorf("release shares for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("release shares for user %s: reservation smaller than %d", userID, size)
	}
	return nil
}

// SettleBuy consumes the cash reservation and credits the holding.
func (s *AccountStore) SettleBuy(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ticker string, amount decimal.Decimal, size int64) error {
	query := `UPDATE accounts
			  SET reserved_cash = reserved_cash - $1, updated_at = NOW()
			  WHERE user_id = $2 AND reserved_cash >= $1`
	cmdTag, err := tx.Exec(ctx, query, amount.String(), userID)
	if err != nil {
		return fmt.Errorf("settle buy for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("settle buy for user %s: reservation smaller than %s", userID, amount)
	}

	upsert := `INSERT INTO holdings (user_id, ticker, quantity) VALUES ($1, $2, $3)
			   ON CONFLICT (user_id, ticker)
			   DO UPDATE SET quantity = holdings.quantity + $3, updated_at = NOW()`
	if _, err := tx.Exec(ctx, upsert, userID, ticker, size); err != nil {
		return fmt.Errorf("settle buy holding for user %s: %w", userID, err)
	}
	return nil
}

// SettleSell consumes the share reservation and credits the proceeds.
// Holding rows left at zero are removed, never retained.
func (s *AccountStore) SettleSell(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ticker string, proceeds decimal.Decimal, size int64) error {
	query := `UPDATE holdings
			  SET reserved = reserved - $1, updated_at = NOW()
			  WHERE user_id = $2 AND ticker = $3 AND reserved >= $1`
	cmdTag, err := tx.Exec(ctx, query, size, userID, ticker)
	if err != nil {
		return fmt.Errorf("settle sell for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("settle sell for user %s: reservation smaller than %d", userID, size)
	}

	cleanup := `DELETE FROM holdings
				WHERE user_id = $1 AND ticker = $2 AND quantity = 0 AND reserved = 0`
	if _, err := tx.Exec(ctx, cleanup, userID, ticker); err != nil {
		return fmt.Errorf("settle sell cleanup for user %s: %w", userID, err)
	}

	credit := `UPDATE accounts
			   SET cash_balance = cash_balance + $1, updated_at = NOW()
			   WHERE user_id = $2`
	if _, err := tx.Exec(ctx, credit, proceeds.String(), userID); err != nil {
		return fmt.Errorf("settle sell credit for user %s: %w", userID, err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")
	return pool, nil
}

// InitSchema creates the tables if they do not exist. Development
// convenience; production would use migrations.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS accounts (
		user_id UUID PRIMARY KEY REFERENCES users(id),
		cash_balance NUMERIC(20,2) NOT NULL CHECK (cash_balance >= 0),
		reserved_cash NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (reserved_cash >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS holdings (
		user_id UUID NOT NULL REFERENCES users(id),
		ticker TEXT NOT NULL,
		quantity BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		reserved BIGINT NOT NULL DEFAULT 0 CHECK (reserved >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, ticker)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id),
		ticker TEXT NOT NULL,
		side TEXT NOT NULL,
		execution_type TEXT NOT NULL,
		price NUMERIC(20,2) NOT NULL,
		size BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_user_created
		ON orders (user_id, created_at DESC);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/papertrade/internal/models"
)

// UserStore persists user records.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore wraps the pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a new user within tx.
func (s *UserStore) Create(ctx context.Context, tx pgx.Tx, username, passwordHash string) (*models.User, error) {
	user := &models.User{Username: username, Password: passwordHash}

	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2)
			  RETURNING id, created_at`
	err := tx.QueryRow(ctx, query, username, passwordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

// ByUsername retrieves a user by username, nil if absent.
func (s *UserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`

	err := s.pool.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return user, nil
}

// ByID retrieves a user by id, nil if absent.
func (s *UserStore) ByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`

	err := s.pool.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// Package handlers exposes the HTTP API: auth, order entry, order listing,
// portfolio, prices, and the websocket feed.
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/auth"
	"github.com/user/papertrade/internal/database"
	"github.com/user/papertrade/internal/execution"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/prices"
	"github.com/user/papertrade/internal/websocket"
)

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	pool            *pgxpool.Pool
	users           *database.UserStore
	accounts        *database.AccountStore
	orders          *database.OrderStore
	issuer          *auth.TokenIssuer
	exec            *execution.Executor
	prices          *prices.Source
	hub             *websocket.Hub
	validate        *validator.Validate
	startingBalance decimal.Decimal
	log             *zap.Logger
}

// New wires up a handler set.
func New(
	pool *pgxpool.Pool,
	users *database.UserStore,
	accounts *database.AccountStore,
	orders *database.OrderStore,
	issuer *auth.TokenIssuer,
	exec *execution.Executor,
	priceSource *prices.Source,
	hub *websocket.Hub,
	startingBalance decimal.Decimal,
	log *zap.Logger,
) *Handler {
	return &Handler{
		pool:            pool,
		users:           users,
		accounts:        accounts,
		orders:          orders,
		issuer:          issuer,
		exec:            exec,
		prices:          priceSource,
		hub:             hub,
		validate:        validator.New(),
		startingBalance: startingBalance,
		log:             log,
	}
}

// apiError renders a taxonomy error with its wire code, falling back to a
// plain message for everything else.
func apiError(c *fiber.Ctx, status int, err error) error {
	body := fiber.Map{"error": err.Error()}
	if code := models.ErrorCode(err); code != "" {
		body["code"] = code
	}
	return c.Status(status).JSON(body)
}

// rejectionStatus maps validation rejections to 400 and everything else to
// an internal error.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidOrder),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientHoldings),
		errors.Is(err, models.ErrUnknownTicker):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// callerID extracts the authenticated user id stashed by the middleware.
func callerID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	return userID, ok
}

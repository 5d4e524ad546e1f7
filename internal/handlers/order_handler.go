package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/ledger"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
)

type createOrderRequest struct {
	Ticker        string `json:"ticker" validate:"required"`
	Side          string `json:"side" validate:"required"`
	ExecutionType string `json:"execution_type" validate:"required"`
	Price         string `json:"price"`
	Size          int64  `json:"size" validate:"required,gt=0"`
}

// CreateOrder validates a new order, reserves the value it commits, inserts
// it as pending, and hands it to the executor. The reservation and the
// insert share one transaction so a rejected order leaves no trace.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	req := new(createOrderRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": models.CodeInvalidOrder})
	}

	side, err := models.ParseSide(req.Side)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err)
	}
	execType, err := models.ParseExecutionType(req.ExecutionType)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err)
	}

	proposal := ledger.Proposal{
		Ticker:        req.Ticker,
		Side:          side,
		ExecutionType: execType,
		Size:          req.Size,
	}
	ticker := proposal.NormalizedTicker()

	switch execType {
	case models.Market:
		// Market orders execute at the current reference price; a client
		// supplied price is ignored.
		price, err := h.prices.Price(ticker)
		if err != nil {
			return apiError(c, rejectionStatus(err), err)
		}
		proposal.Price = price
	case models.Limit:
		if req.Price == "" {
			return apiError(c, fiber.StatusBadRequest,
				models.ErrInvalidOrder)
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid price", "code": models.CodeInvalidOrder})
		}
		if _, err := h.prices.Price(ticker); err != nil {
			return apiError(c, rejectionStatus(err), err)
		}
		proposal.Price = price
	}

	acct, err := h.accounts.Get(c.Context(), userID)
	if err != nil {
		h.log.Error("load account", zap.Stringer("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load account"})
	}
	if err := ledger.ValidateOrder(acct, proposal); err != nil {
		return apiError(c, rejectionStatus(err), err)
	}

	tx, err := h.pool.Begin(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	// Re-check under the guarded update: the pure validation above raced
	// with any concurrent order, the reservation does not.
	switch side {
	case models.Buy:
		err = h.accounts.ReserveCash(c.Context(), tx, userID, proposal.TotalCost())
	case models.Sell:
		err = h.accounts.ReserveShares(c.Context(), tx, userID, ticker, proposal.Size)
	}
	if err != nil {
		return apiError(c, rejectionStatus(err), err)
	}

	record := &remote.OrderRecord{
		UserID:        userID,
		Ticker:        ticker,
		Side:          side.Remote(),
		ExecutionType: execType.Remote(),
		Price:         proposal.Price,
		Size:          proposal.Size,
	}
	if err := h.orders.Insert(c.Context(), tx, record); err != nil {
		h.log.Error("insert order", zap.Stringer("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	}
	if err := tx.Commit(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing order"})
	}

	h.exec.Submit(record.ID)
	h.log.Info("order accepted",
		zap.Stringer("order_id", record.ID),
		zap.Stringer("user_id", userID),
		zap.String("ticker", ticker),
		zap.String("side", record.Side),
		zap.Int64("size", record.Size),
		zap.String("price", record.Price.String()))

	return c.Status(fiber.StatusCreated).JSON(record)
}

// ListOrders returns the caller's orders, oldest first.
func (h *Handler) ListOrders(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	records, err := h.orders.ListByUser(c.Context(), userID)
	if err != nil {
		h.log.Error("list orders", zap.Stringer("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list orders"})
	}
	return c.JSON(fiber.Map{"orders": records})
}

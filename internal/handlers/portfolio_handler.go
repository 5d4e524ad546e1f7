package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type holdingView struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type portfolioView struct {
	UserID      uuid.UUID       `json:"user_id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	Holdings    []holdingView   `json:"holdings"`
}

// Portfolio returns the caller's available cash and holdings. Value reserved
// by in-flight orders is not included.
func (h *Handler) Portfolio(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	acct, err := h.accounts.Get(c.Context(), userID)
	if err != nil {
		h.log.Error("load portfolio", zap.Stringer("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load portfolio"})
	}

	holdings := make([]holdingView, 0, len(acct.Holdings))
	for ticker, quantity := range acct.Holdings {
		holdings = append(holdings, holdingView{Ticker: ticker, Quantity: quantity})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Ticker < holdings[j].Ticker })

	return c.JSON(portfolioView{
		UserID:      acct.UserID,
		CashBalance: acct.CashBalance,
		Holdings:    holdings,
	})
}

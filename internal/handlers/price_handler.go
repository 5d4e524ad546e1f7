package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Prices returns the current price of every tracked symbol.
func (h *Handler) Prices(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"prices": h.prices.Snapshot()})
}

// Price returns the current price of a single symbol.
func (h *Handler) Price(c *fiber.Ctx) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.Params("ticker")))
	price, err := h.prices.Price(ticker)
	if err != nil {
		return apiError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(fiber.Map{"ticker": ticker, "price": price})
}

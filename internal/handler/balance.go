package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
)

// GetBalance returns the caller's coin balance
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	balance, err := h.coinSvc.Balance(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"coins": balance,
	})
}

// GetTransactions returns the caller's coin history, newest first
func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	txs, err := h.coinSvc.Transactions(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
	})
}

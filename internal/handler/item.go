package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
)

// PublishItem charges the listing fee and activates a draft item
func (h *Handler) PublishItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	item, fee, err := h.listingSvc.PublishItem(c.Context(), itemID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"item": item,
		"fee":  fee,
	})
}

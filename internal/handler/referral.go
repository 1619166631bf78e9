package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
)

type ApplyReferralRequest struct {
	Code string `json:"code"`
}

func (h *Handler) GetReferralStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	stats, err := h.referralSvc.GetReferralStats(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stats)
}

func (h *Handler) GetReferralLink(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	link, err := h.referralSvc.GetReferralLink(c.Context(), userID, h.cfg.Telegram.BotUsername)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.userSvc.GetUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"link": link,
		"code": user.ReferralCode,
	})
}

func (h *Handler) ApplyReferralCode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req ApplyReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return badRequest(c, "code is required")
	}

	referral, err := h.referralSvc.ApplyReferralCode(c.Context(), userID, code)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(referral)
}

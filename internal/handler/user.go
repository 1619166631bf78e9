package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
)

type MeResponse struct {
	User    *model.User          `json:"user"`
	CheckIn *model.CheckInResult `json:"check_in,omitempty"`
}

// GetMe registers the caller on first sight and records the daily check-in.
// A start_param in the init data is treated as a referral code for new users.
func (h *Handler) GetMe(c *fiber.Ctx) error {
	telegramUser := middleware.GetTelegramUser(c)
	if telegramUser == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	user, created, err := h.userSvc.GetOrCreateUser(c.Context(), service.TelegramUser{
		ID:           telegramUser.UserID,
		Username:     optional(telegramUser.Username),
		FirstName:    optional(telegramUser.FirstName),
		LastName:     optional(telegramUser.LastName),
		LanguageCode: optional(telegramUser.LanguageCode),
	})
	if err != nil {
		return respondError(c, err)
	}

	if created && telegramUser.StartParam != "" {
		if _, err := h.referralSvc.ApplyReferralCode(c.Context(), user.ID, telegramUser.StartParam); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to apply start referral code")
		}
	}

	resp := MeResponse{}
	checkIn, err := h.userSvc.CheckIn(c.Context(), user.ID)
	switch {
	case err == nil:
		resp.CheckIn = checkIn
	case errors.Is(err, service.ErrAlreadyCheckedIn):
	default:
		return respondError(c, err)
	}

	// reload so coins reflect any bonus just credited
	resp.User, err = h.userSvc.GetUser(c.Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
)

type Handler struct {
	cfg         *config.Config
	userSvc     *service.UserService
	coinSvc     *service.CoinService
	offerSvc    *service.OfferService
	listingSvc  *service.ListingService
	referralSvc *service.ReferralService
}

func New(
	cfg *config.Config,
	userSvc *service.UserService,
	coinSvc *service.CoinService,
	offerSvc *service.OfferService,
	listingSvc *service.ListingService,
	referralSvc *service.ReferralService,
) *Handler {
	return &Handler{
		cfg:         cfg,
		userSvc:     userSvc,
		coinSvc:     coinSvc,
		offerSvc:    offerSvc,
		listingSvc:  listingSvc,
		referralSvc: referralSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidOffer),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidReason),
		errors.Is(err, service.ErrInvalidSetting),
		errors.Is(err, service.ErrSelfReferral):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotAdmin):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrItemNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrReferralAlreadyExists),
		errors.Is(err, service.ErrAlreadyCheckedIn):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInsufficientBalance):
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Storage failures are
// reported without their internal detail.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

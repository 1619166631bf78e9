package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

type CreateOfferRequest struct {
	ItemID     string `json:"item_id"`
	ReceiverID int64  `json:"receiver_id"`
	Amount     string `json:"amount"`
	Message    string `json:"message"`
}

type CounterOfferRequest struct {
	Amount  string `json:"amount"`
	Message string `json:"message"`
}

type CloseOfferRequest struct {
	Reason string `json:"reason"`
}

// ListOffers returns offers the caller sent or received
func (h *Handler) ListOffers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	offers, err := h.offerSvc.ListOffers(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"offers": offers,
	})
}

func (h *Handler) CreateOffer(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return badRequest(c, "invalid item_id")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return badRequest(c, "invalid amount")
	}

	offer, err := h.offerSvc.CreateInitialOffer(c.Context(), userID, req.ReceiverID, itemID, amount, req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(offer)
}

// GetOffer returns the offer with its negotiation thread
func (h *Handler) GetOffer(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	thread, err := h.offerSvc.GetThread(c.Context(), offerID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(thread)
}

// GetOfferChain returns the chain from the root offer to the given one.
// Only participants of the thread may read it.
func (h *Handler) GetOfferChain(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	thread, err := h.offerSvc.GetThread(c.Context(), offerID, userID)
	if err != nil {
		return respondError(c, err)
	}

	root := thread.Chain[0]
	return c.JSON(fiber.Map{
		"root":  root,
		"chain": thread.Chain,
	})
}

func (h *Handler) CounterOffer(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	var req CounterOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return badRequest(c, "invalid amount")
	}

	offer, err := h.offerSvc.Counter(c.Context(), offerID, userID, amount, req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(offer)
}

func (h *Handler) AcceptOffer(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	offer, err := h.offerSvc.Accept(c.Context(), offerID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(offer)
}

func (h *Handler) RejectOffer(c *fiber.Ctx) error {
	return h.closeOffer(c, h.offerSvc.Reject)
}

func (h *Handler) CancelOffer(c *fiber.Ctx) error {
	return h.closeOffer(c, h.offerSvc.Cancel)
}

type closeFunc func(ctx context.Context, offerID uuid.UUID, actorID int64, reason string) (*model.Offer, error)

func (h *Handler) closeOffer(c *fiber.Ctx, fn closeFunc) error {
	userID := middleware.GetUserID(c)
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	// the reason is optional, so an empty body is fine
	var req CloseOfferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	offer, err := fn(c.Context(), offerID, userID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(offer)
}

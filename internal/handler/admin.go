package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
)

// AdminHandler handles admin panel requests
type AdminHandler struct {
	adminSvc *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// --- Coins ---

type AdjustCoinsRequest struct {
	Amount      int64  `json:"amount"` // negative to take coins away
	Description string `json:"description"`
}

// AdjustCoins credits or debits a user's coins through the ledger
func (h *AdminHandler) AdjustCoins(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)
	targetUserID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	var req AdjustCoinsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.adminSvc.AdjustCoins(c.Context(), adminID, targetUserID, req.Amount, req.Description)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(entry)
}

func (h *AdminHandler) GetUserTransactions(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)
	targetUserID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	txs, err := h.adminSvc.UserTransactions(c.Context(), adminID, targetUserID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
	})
}

// Reconcile compares a user's balance with their ledger
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)
	targetUserID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	rec, err := h.adminSvc.Reconcile(c.Context(), adminID, targetUserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"reconciliation": rec,
		"consistent":     rec.Consistent(),
	})
}

// --- Settings ---

type SetSettingRequest struct {
	Value int64 `json:"value"`
}

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)

	settings, err := h.adminSvc.GetSettings(c.Context(), adminID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(settings)
}

func (h *AdminHandler) SetSetting(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)

	var req SetSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	setting, err := h.adminSvc.SetSetting(c.Context(), adminID, utils.CopyString(c.Params("key")), req.Value)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(setting)
}

// --- Logs ---

func (h *AdminHandler) GetLogs(c *fiber.Ctx) error {
	adminID := middleware.GetAdminID(c)

	logs, err := h.adminSvc.GetLogs(c.Context(), adminID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/middleware"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
)

// NewApp creates the Fiber app with the common middleware stack
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	if cfg.Server.IsDevelopment() {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data",
	}))

	return app
}

func SetupRoutes(app *fiber.App, cfg *config.Config, h *Handler, adminHandler *AdminHandler, reconciler *service.ReconcileWorker) {
	app.Get("/health", h.Health)

	api := app.Group("/api", middleware.TelegramAuth(cfg.Telegram.BotToken))

	// User
	api.Get("/user/me", h.GetMe)

	// Coins
	api.Get("/coins", h.GetBalance)
	api.Get("/coins/transactions", h.GetTransactions)

	// Items
	api.Post("/items/:id/publish", h.PublishItem)

	// Offers
	api.Get("/offers", h.ListOffers)
	api.Post("/offers", h.CreateOffer)
	api.Get("/offers/:id", h.GetOffer)
	api.Get("/offers/:id/chain", h.GetOfferChain)
	api.Post("/offers/:id/counter", h.CounterOffer)
	api.Post("/offers/:id/accept", h.AcceptOffer)
	api.Post("/offers/:id/reject", h.RejectOffer)
	api.Post("/offers/:id/cancel", h.CancelOffer)

	// Referral
	api.Get("/referral/stats", h.GetReferralStats)
	api.Get("/referral/link", h.GetReferralLink)
	api.Post("/referral/apply", h.ApplyReferralCode)

	// Admin
	admin := api.Group("/admin", middleware.AdminAuth(adminHandler.adminSvc))
	admin.Post("/users/:user_id/coins", adminHandler.AdjustCoins)
	admin.Get("/users/:user_id/transactions", adminHandler.GetUserTransactions)
	admin.Get("/users/:user_id/reconcile", adminHandler.Reconcile)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings/:key", adminHandler.SetSetting)
	admin.Get("/logs", adminHandler.GetLogs)

	// Internal endpoints (for cron jobs)
	internal := app.Group("/internal")
	internal.Get("/health", h.Health)
	if reconciler != nil {
		internal.Post("/cron/reconcile", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"mismatches": reconciler.RunOnce(c.Context()),
			})
		})
	}
}

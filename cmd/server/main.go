package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/handler"
	"github.com/rsravisharma/swap-web-sub002/internal/logger"
	"github.com/rsravisharma/swap-web-sub002/internal/repository"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
	"github.com/rsravisharma/swap-web-sub002/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.New(cfg.Log)

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	// Create services
	settingsSvc := service.NewSettingsService(repo, cfg.Coins)
	coinSvc := service.NewCoinService(repo)
	userSvc := service.NewUserService(repo, coinSvc, settingsSvc, cfg.Coins)
	offerSvc := service.NewOfferService(repo, repo, settingsSvc, cfg.Offers)
	listingSvc := service.NewListingService(repo, coinSvc, settingsSvc)
	referralSvc := service.NewReferralService(repo, repo, coinSvc, settingsSvc)
	adminSvc := service.NewAdminService(repo, coinSvc, settingsSvc)
	reconciler := service.NewReconcileWorker(coinSvc, cfg.Reconcile.Interval)

	// Create Telegram bot
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg, userSvc, coinSvc, offerSvc, referralSvc)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create telegram bot")
		} else {
			offerSvc.SetNotifier(bot)
			if cfg.Telegram.BotUsername == "" {
				cfg.Telegram.BotUsername = bot.GetBotUsername()
			}
			log.Info().Str("username", bot.GetBotUsername()).Msg("telegram bot initialized")
		}
	}

	// Create handlers
	h := handler.New(cfg, userSvc, coinSvc, offerSvc, listingSvc, referralSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	app := handler.NewApp(cfg)
	handler.SetupRoutes(app, cfg, h, adminHandler, reconciler)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bot != nil {
		go bot.StartPolling(ctx)
		log.Info().Msg("telegram bot started with long polling")
	}

	go reconciler.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

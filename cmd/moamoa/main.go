package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kerhoff/moamoa/internal/api"
	"github.com/Kerhoff/moamoa/internal/auth"
	"github.com/Kerhoff/moamoa/internal/cache"
	"github.com/Kerhoff/moamoa/internal/caption"
	"github.com/Kerhoff/moamoa/internal/config"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/handlers"
	"github.com/Kerhoff/moamoa/internal/notify"
	"github.com/Kerhoff/moamoa/internal/repository/postgres"
	"github.com/Kerhoff/moamoa/internal/service"
	"github.com/Kerhoff/moamoa/internal/shopping"
	"github.com/Kerhoff/moamoa/internal/storage"
	"github.com/Kerhoff/moamoa/internal/telegram"
	"github.com/Kerhoff/moamoa/pkg/logger"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting MoaMoa...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	repos := service.Repositories{
		Users:         postgres.NewUserRepository(db.DB),
		Follows:       postgres.NewFollowRepository(db.DB),
		Events:        postgres.NewEventRepository(db.DB),
		Participants:  postgres.NewParticipantRepository(db.DB),
		Wishlists:     postgres.NewWishlistRepository(db.DB),
		Votes:         postgres.NewVoteRepository(db.DB),
		Selections:    postgres.NewSelectionRepository(db.DB),
		Letters:       postgres.NewLetterRepository(db.DB),
		SearchHistory: postgres.NewSearchHistoryRepository(db.DB),
		Dispositions:  postgres.NewDispositionRepository(db.DB),
		Notifications: postgres.NewNotificationRepository(db.DB),
		Proofs:        postgres.NewPurchaseProofRepository(db.DB),
		ShareTokens:   postgres.NewShareTokenRepository(db.DB),
	}

	// Outbound integrations
	ext := service.Integrations{
		Crawler:           shopping.NewCrawler(),
		Captioner:         caption.NewClient(cfg.CaptionServerURL),
		SettlementFormURL: cfg.SettlementFormURL,
		ShareBaseURL:      cfg.FrontendBaseURL,
	}

	var store shopping.Store
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL, "moamoa:")
		if err != nil {
			l.WithError(err).Warn("Redis unavailable, shopping search runs uncached")
		} else {
			defer c.Close()
			store = c
		}
	}
	ext.Shopping = shopping.NewClient(shopping.Config{
		BaseURL:      cfg.NaverShopURL,
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
	}, store, l)

	if cfg.S3Endpoint != "" {
		uploads, err := storage.New(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			l.WithError(err).Warn("Object storage disabled")
		} else {
			ext.Uploads = uploads
		}
	}

	// Notification channels
	var channels notify.Multi
	if mailer := notify.NewMailer(notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}); mailer != nil {
		channels = append(channels, mailer)
	}

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.WithError(err).Warn("Telegram bot disabled")
		} else {
			channels = append(channels, bot)
		}
	}
	ext.Notifier = channels

	// Service layer
	clock := dday.NewClock(cfg.Location())
	svc := service.New(l, clock, repos, ext)

	if bot != nil {
		bot.RegisterCommand("start", handlers.NewStartHandler(svc, l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("birthdays", handlers.NewBirthdaysHandler(svc, l))
		bot.RegisterCommand("notifications", handlers.NewNotificationsHandler(svc, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	// Start auto-event scheduler
	go func() {
		if err := svc.StartAutoEventScheduler(ctx, cfg.AutoEventSpec); err != nil {
			l.Errorf("Auto-event scheduler error: %v", err)
		}
	}()

	// HTTP API
	apiServer := api.NewServer(svc, auth.NewManager(cfg.JWTSecret, tokenTTL), l, api.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	go apiServer.Limiter().StartSweeper(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	l.Info("MoaMoa started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("HTTP server shutdown failed")
	}

	l.Info("MoaMoa stopped")
}

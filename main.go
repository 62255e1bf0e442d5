package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/hazelquimpo21/fam-app-sub002/internal/config"
	"github.com/hazelquimpo21/fam-app-sub002/internal/database"
	"github.com/hazelquimpo21/fam-app-sub002/internal/google"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
	"github.com/hazelquimpo21/fam-app-sub002/internal/server"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	memberRepo := repository.NewMemberRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	externalEventRepo := repository.NewExternalEventRepository(db)

	ctx := context.Background()
	authService, err := services.NewAuthService(ctx, cfg, memberRepo, familyRepo)
	if err != nil {
		slog.Error("creating auth service", "error", err)
		os.Exit(1)
	}

	if !cfg.GoogleConfigured() {
		slog.Warn("Google credentials not configured, calendar connections will be disabled")
	}
	googleClient := google.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	connectService := services.NewConnectService(connectionRepo, subscriptionRepo, googleClient)
	syncService := services.NewSyncService(connectionRepo, subscriptionRepo, externalEventRepo, googleClient)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
		syncService.SyncAll(context.Background())
	}); err != nil {
		slog.Error("scheduling sync sweep", "schedule", cfg.SyncSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(db, cfg, authService, connectService, syncService)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

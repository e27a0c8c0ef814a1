package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danutirta/childguard_bot/internal/antares"
	"github.com/danutirta/childguard_bot/internal/app"
	"github.com/danutirta/childguard_bot/internal/config"
	"github.com/danutirta/childguard_bot/internal/controller"
	"github.com/danutirta/childguard_bot/internal/geo"
	"github.com/danutirta/childguard_bot/internal/notify"
	"github.com/danutirta/childguard_bot/internal/repository"
	"github.com/danutirta/childguard_bot/internal/service"
	"github.com/danutirta/childguard_bot/internal/webhook"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Fatal error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting childguard bot",
		zap.String("environment", cfg.Environment),
		zap.Float64("radius_km", cfg.RadiusKm),
		zap.Float64("arrival_radius_km", cfg.ArrivalRadiusKm),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	migrator.Close()

	childRepo := repository.NewChildRepository(pool)
	codeRepo := repository.NewCodeMappingRepository(pool)
	linkRepo := repository.NewRoleLinkRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}

	registry := service.NewRegistryService(codeRepo, linkRepo, logger)
	relationship := service.NewRelationshipService(childRepo, linkRepo, codeRepo, sessionRepo, logger)
	dispatcher := notify.NewDispatcher(notify.NewTelegramSender(b), relationship, logger)
	bridge := antares.NewClient(cfg.AntaresURLPost, cfg.AntaresAccessKey, logger)

	monitor := service.NewMonitorService(
		sessionRepo,
		relationship,
		dispatcher,
		bridge,
		geo.Point{Lat: cfg.SchoolLat, Lon: cfg.SchoolLon},
		cfg.RadiusKm,
		cfg.ArrivalRadiusKm,
		logger,
	)

	if err := monitor.Restore(ctx); err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}

	botController := controller.NewBotController(b, registry, relationship, monitor, cfg.AdminChatID, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	webhookServer := webhook.NewServer(childRepo, sessionRepo, dispatcher, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebhookPort),
		Handler: webhookServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Webhook server listening", zap.Int("port", cfg.WebhookPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("webhook server: %w", err)
		}
	}()

	go botController.Start(ctx)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Webhook server shutdown failed", zap.Error(err))
	}

	return nil
}

package controller

import (
	"context"

	"github.com/danutirta/childguard_bot/internal/controller/handlers"
	"github.com/danutirta/childguard_bot/internal/controller/state"
	"github.com/danutirta/childguard_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	registry *service.RegistryService,
	relationship *service.RelationshipService,
	monitor *service.MonitorService,
	adminChatID int64,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	cmdHandlers := handlers.NewHandlers(
		registry,
		relationship,
		monitor,
		stateManager,
		adminChatID,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers registers all command handlers.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/daftar", bot.MatchTypeExact, c.handlers.HandleDaftar)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, c.handlers.HandleStatus)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypeExact, c.handlers.HandleReset)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)

	// Admin commands carry arguments, so prefix matching.
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/addchild", bot.MatchTypePrefix, c.handlers.HandleAddChild)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/linkchild", bot.MatchTypePrefix, c.handlers.HandleLinkChild)

	// Position updates, including live-location edits.
	c.bot.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return (update.Message != nil && update.Message.Location != nil) ||
			(update.EditedMessage != nil && update.EditedMessage.Location != nil)
	}, c.handlers.HandleLocation)

	// Free text: registration dialog and ya/tidak confirmations.
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	return c.setCommands(ctx)
}

// setCommands fills the bot command menu.
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Mulai monitoring / mendaftar"},
		{Command: "daftar", Description: "🔑 Daftar dengan kode"},
		{Command: "status", Description: "📊 Status monitoring"},
		{Command: "reset", Description: "🗑 Hapus sesi dan tautan saya"},
		{Command: "help", Description: "❓ Bantuan"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start runs the long-polling loop until the context is cancelled.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

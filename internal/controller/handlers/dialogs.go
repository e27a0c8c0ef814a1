package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danutirta/childguard_bot/internal/controller/state"
	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleTextMessage routes free text: first through the registration
// dialog, then as a ya/tidak pickup confirmation. Text that matches
// neither is ignored for registered users and answered with guidance for
// unknown chats.
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	// Commands are handled by their own handlers.
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch h.stateManager.GetState(chatID) {
	case state.StateChoosingRole:
		h.handleRoleChoice(ctx, b, chatID, text)
	case state.StateAwaitingCodeGuardian:
		h.handleCodeEntry(ctx, b, chatID, text, model.RoleGuardian)
	case state.StateAwaitingCodeTeacher:
		h.handleCodeEntry(ctx, b, chatID, text, model.RoleTeacher)
	default:
		if h.monitor.OnConfirmation(ctx, chatID, text) {
			return
		}
		h.handleUnexpectedText(ctx, b, chatID)
	}
}

func (h *Handlers) handleRoleChoice(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	role, err := model.ParseRole(text)
	if err != nil {
		h.reply(ctx, b, chatID, "❌ Pilihan tidak dikenal. Silakan pilih 'Orang Tua' atau 'Guru'.")
		return
	}

	if role == model.RoleTeacher {
		h.stateManager.SetState(chatID, state.StateAwaitingCodeTeacher)
	} else {
		h.stateManager.SetState(chatID, state.StateAwaitingCodeGuardian)
	}

	h.reply(ctx, b, chatID,
		"🔑 Silakan masukkan kode pendaftaran Anda.\n\n"+
			"Kode diberikan oleh admin sekolah (contoh: ORTU-01).")
}

func (h *Handlers) handleCodeEntry(ctx context.Context, b *bot.Bot, chatID int64, code string, role model.Role) {
	mapping, err := h.registry.ClaimCode(ctx, code, chatID, role)
	switch {
	case errors.Is(err, service.ErrAlreadyClaimed):
		h.reply(ctx, b, chatID, "❌ Kode ini sudah digunakan oleh orang lain. Periksa kembali kode Anda.")
		return
	case errors.Is(err, service.ErrAlreadyRegistered):
		h.stateManager.ClearState(chatID)
		h.reply(ctx, b, chatID, "❌ Anda sudah terdaftar dengan kode lain. Ketik /start untuk memulai.")
		return
	case err != nil:
		h.logger.Error("Failed to claim code",
			zap.Int64("chat_id", chatID), zap.String("code", code), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	h.stateManager.ClearState(chatID)

	if _, err := h.registry.ResolveLinks(ctx, mapping); err != nil {
		h.logger.Error("Failed to resolve links",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("✅ Berhasil terdaftar dengan kode %s.", mapping.UserCode))

	switch role {
	case model.RoleGuardian:
		h.activateAndGreet(ctx, b, chatID)
	case model.RoleTeacher:
		h.greetTeacher(ctx, b, chatID)
	}
}

func (h *Handlers) handleUnexpectedText(ctx context.Context, b *bot.Bot, chatID int64) {
	mapping, err := h.registry.Resolve(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to resolve chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if mapping == nil {
		h.reply(ctx, b, chatID, notRegisteredText)
	}
	// Registered users' stray text is ignored; only ya/tidak matters here.
}

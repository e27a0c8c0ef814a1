package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleAddChild handles /addchild <device_id> <name>, registering a child
// with its wearable sensor. Admin only.
func (h *Handlers) HandleAddChild(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAdmin(chatID) {
		h.reply(ctx, b, chatID, "❌ Perintah ini hanya untuk admin.")
		return
	}

	args := strings.Fields(update.Message.Text)[1:]
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Format: /addchild <device_id> <nama anak>")
		return
	}

	deviceID := args[0]
	name := strings.Join(args[1:], " ")

	child, err := h.relationship.RegisterChild(ctx, name, deviceID)
	switch {
	case errors.Is(err, service.ErrDuplicateDevice):
		h.reply(ctx, b, chatID, fmt.Sprintf("❌ Device %s sudah terdaftar.", deviceID))
		return
	case err != nil:
		h.logger.Error("Failed to register child", zap.String("device_id", deviceID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"✅ Anak terdaftar.\n👶 Nama: %s\n📱 Device ID: %s\n🆔 ID: %d",
		child.Name, child.DeviceID, child.ID,
	))
}

// HandleLinkChild handles /linkchild <device_id> <code> <role> [catatan],
// linking the owner of a registration code to a child. Works before the
// code is claimed: the link stays keyed by the code until its owner
// registers. Admin only.
func (h *Handlers) HandleLinkChild(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAdmin(chatID) {
		h.reply(ctx, b, chatID, "❌ Perintah ini hanya untuk admin.")
		return
	}

	args := strings.Fields(update.Message.Text)[1:]
	if len(args) < 3 {
		h.reply(ctx, b, chatID, "Format: /linkchild <device_id> <kode> <ortu|guru> [catatan]")
		return
	}

	deviceID, code := args[0], args[1]
	role, err := model.ParseRole(args[2])
	if err != nil {
		h.reply(ctx, b, chatID, "❌ Peran tidak dikenal. Gunakan 'ortu' atau 'guru'.")
		return
	}
	note := strings.Join(args[3:], " ")

	child, err := h.relationship.LinkChild(ctx, deviceID, code, role, note)
	switch {
	case errors.Is(err, service.ErrChildNotFound):
		h.reply(ctx, b, chatID, fmt.Sprintf("❌ Tidak ada anak dengan device %s.", deviceID))
		return
	case errors.Is(err, service.ErrDuplicateLink):
		h.reply(ctx, b, chatID, "⚠️ Tautan ini sudah ada; tidak ada yang diubah.")
		return
	case err != nil:
		h.logger.Error("Failed to link child",
			zap.String("device_id", deviceID), zap.String("code", code), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"✅ %s terhubung dengan kode %s sebagai %s.",
		child.Name, code, args[2],
	))
}

func (h *Handlers) isAdmin(chatID int64) bool {
	return h.adminChatID != 0 && chatID == h.adminChatID
}

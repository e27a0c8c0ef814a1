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

const notRegisteredText = "🤖 Anda belum terdaftar.\n\n" +
	"Ketik /start untuk mendaftar dengan kode dari admin sekolah."

// HandleStart handles /start: begins registration for unknown chats,
// resolves placeholder links and activates monitoring for guardians,
// greets teachers.
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	mapping, err := h.registry.Resolve(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to resolve chat", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	if mapping == nil {
		h.beginRegistration(ctx, b, chatID)
		return
	}

	// One-time migration of links pre-wired against the code.
	if _, err := h.registry.ResolveLinks(ctx, mapping); err != nil {
		h.logger.Error("Failed to resolve links", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	switch mapping.Role {
	case model.RoleGuardian:
		h.activateAndGreet(ctx, b, chatID)
	case model.RoleTeacher:
		h.greetTeacher(ctx, b, chatID)
	default:
		h.reply(ctx, b, chatID, notRegisteredText)
	}
}

// HandleDaftar handles /daftar: explicitly restarts the registration
// dialog.
func (h *Handlers) HandleDaftar(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	mapping, err := h.registry.Resolve(ctx, chatID)
	if err == nil && mapping != nil {
		h.reply(ctx, b, chatID, fmt.Sprintf(
			"✅ Anda sudah terdaftar dengan kode %s. Ketik /start untuk memulai monitoring.",
			mapping.UserCode,
		))
		return
	}

	h.beginRegistration(ctx, b, chatID)
}

// HandleHelp handles /help.
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Daftar perintah:\n\n" +
		"/start - Mulai monitoring (atau mendaftar)\n" +
		"/daftar - Daftar dengan kode dari admin\n" +
		"/status - Lihat status monitoring\n" +
		"/reset - Hapus semua sesi dan tautan saya\n" +
		"/help - Tampilkan bantuan ini\n\n" +
		"📍 Orang tua: bagikan Live Location agar bot memantau posisi Anda.\n" +
		"🚨 Guru menerima alert otomatis jika anak terjatuh."

	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleStatus handles /status: per-child session state for guardians.
func (h *Handlers) HandleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	role, err := h.relationship.RoleOf(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to look up role", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	switch role {
	case model.RoleGuardian:
		h.replyGuardianStatus(ctx, b, chatID)
	case model.RoleTeacher:
		h.replyTeacherStatus(ctx, b, chatID)
	default:
		h.reply(ctx, b, chatID, notRegisteredText)
	}
}

// HandleReset handles /reset: clears all sessions and deactivates the
// chat's links. Irreversible without the admin re-linking.
func (h *Handlers) HandleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	role, err := h.relationship.RoleOf(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to look up role", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}
	if role == model.RoleUnknown {
		h.reply(ctx, b, chatID, notRegisteredText)
		return
	}

	if err := h.monitor.Reset(ctx, chatID, role); err != nil {
		h.logger.Error("Failed to reset holder", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	h.reply(ctx, b, chatID,
		"🗑 Semua sesi monitoring dan tautan anak Anda telah dihapus.\n\n"+
			"Hubungi admin sekolah untuk menghubungkan kembali.")
}

func (h *Handlers) beginRegistration(ctx context.Context, b *bot.Bot, chatID int64) {
	h.stateManager.SetState(chatID, state.StateChoosingRole)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "👋 Selamat datang di ChildGuard!\n\nSilakan pilih peran Anda:",
		ReplyMarkup: &models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{
				{{Text: "Orang Tua"}, {Text: "Guru"}},
			},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		},
	})
}

// activateAndGreet opens sessions for every linked child and sends the
// live-location tutorial.
func (h *Handlers) activateAndGreet(ctx context.Context, b *bot.Bot, chatID int64) {
	children, err := h.monitor.Activate(ctx, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNoChildren) {
			h.reply(ctx, b, chatID,
				"⚠️ Belum ada anak yang terhubung dengan akun Anda.\n"+
					"Hubungi admin sekolah untuk menghubungkan anak Anda.")
			return
		}
		h.logger.Error("Failed to activate monitoring", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	var names strings.Builder
	for _, child := range children {
		fmt.Fprintf(&names, "• %s\n", child.Name)
	}

	tutorial := fmt.Sprintf(
		"🤖 Child Monitoring aktif!\n\n"+
			"👶 Anak yang dipantau:\n%s\n"+
			"📍 Untuk menyalakan Live Location:\n"+
			"1. Tekan ikon 📎 (attachment) di kolom chat.\n"+
			"2. Pilih 'Lokasi'.\n"+
			"3. Pilih 'Bagikan lokasi terkini' (Live Location).\n"+
			"4. Pilih durasi (15 menit, 1 jam, atau 8 jam).\n\n"+
			"✅ Bot akan memantau posisi Anda sampai sekolah\n"+
			"🚨 Guru akan menerima alert jika anak terjatuh\n\n"+
			"Ketik /status untuk melihat status monitoring",
		names.String(),
	)

	h.reply(ctx, b, chatID, tutorial)
}

func (h *Handlers) greetTeacher(ctx context.Context, b *bot.Bot, chatID int64) {
	children, err := h.relationship.ChildrenFor(ctx, chatID, model.RoleTeacher)
	if err != nil {
		h.logger.Error("Failed to list children", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	if len(children) == 0 {
		h.reply(ctx, b, chatID,
			"✅ Anda terdaftar sebagai guru.\n\n"+
				"⚠️ Belum ada anak yang terhubung. Hubungi admin sekolah.")
		return
	}

	var names strings.Builder
	for _, child := range children {
		fmt.Fprintf(&names, "• %s\n", child.Name)
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"✅ Anda terdaftar sebagai guru.\n\n"+
			"👶 Anak dalam pengawasan Anda:\n%s\n"+
			"🚨 Anda akan menerima alert otomatis jika anak terjatuh.",
		names.String(),
	))
}

func (h *Handlers) replyGuardianStatus(ctx context.Context, b *bot.Bot, chatID int64) {
	sessions := h.monitor.ActiveSessions(chatID)
	if len(sessions) == 0 {
		h.reply(ctx, b, chatID, "❌ Monitoring tidak aktif. Ketik /start untuk memulai.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Status Monitoring\n")
	for _, s := range sessions {
		name := h.monitor.ChildName(chatID, s.ChildID)
		fmt.Fprintf(&sb,
			"\n👶 %s\n🕐 Dimulai: %s\n📍 Dekat sekolah: %s\n🚗 Sudah tiba: %s\n",
			name,
			s.StartTime.Format("15:04:05"),
			yesNo(s.NearSchool),
			yesNo(s.Arrived),
		)
	}
	sb.WriteString("\n🤖 Status: Aktif")

	h.reply(ctx, b, chatID, sb.String())
}

func (h *Handlers) replyTeacherStatus(ctx context.Context, b *bot.Bot, chatID int64) {
	children, err := h.relationship.ChildrenFor(ctx, chatID, model.RoleTeacher)
	if err != nil {
		h.logger.Error("Failed to list children", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Terjadi kesalahan. Silakan coba lagi nanti.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"📊 Status Guru\n\n👶 Anak dalam pengawasan: %d\n🚨 Alert jatuh: aktif",
		len(children),
	))
}

func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Warn("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func yesNo(v bool) string {
	if v {
		return "✅ Ya"
	}
	return "❌ Tidak"
}

package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleLocation feeds a guardian position into the session state machine.
// Live-location edits arrive as EditedMessage and count the same as fresh
// messages. A position from a chat with no active sessions is dropped.
func (h *Handlers) HandleLocation(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Location == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Location == nil {
		return
	}

	h.monitor.OnPosition(ctx, msg.Chat.ID, msg.Location.Latitude, msg.Location.Longitude)
}

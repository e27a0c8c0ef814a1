package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramSender delivers dispatcher messages over the Telegram bot API.
type TelegramSender struct {
	bot *bot.Bot
}

func NewTelegramSender(b *bot.Bot) *TelegramSender {
	return &TelegramSender{bot: b}
}

// Send sends one message. Quick replies become a one-time reply keyboard.
func (t *TelegramSender) Send(ctx context.Context, chatID int64, text string, quickReplies []string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}

	if len(quickReplies) > 0 {
		row := make([]models.KeyboardButton, 0, len(quickReplies))
		for _, option := range quickReplies {
			row = append(row, models.KeyboardButton{Text: option})
		}
		params.ReplyMarkup = &models.ReplyKeyboardMarkup{
			Keyboard:        [][]models.KeyboardButton{row},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		}
	}

	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

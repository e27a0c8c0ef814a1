package model

import "time"

// CodeMapping binds a short human-chosen registration code to the Telegram
// chat that claimed it. A code, once claimed, belongs to that chat forever.
type CodeMapping struct {
	UserCode     string    `json:"user_code"`
	ChatID       int64     `json:"chat_id"`
	Role         Role      `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

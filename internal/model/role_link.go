package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Role string

const (
	RoleGuardian Role = "guardian"
	RoleTeacher  Role = "teacher"
	RoleUnknown  Role = ""
)

// ParseRole accepts both the stored role names and the Indonesian
// labels used in chat.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "guardian", "parent", "orang tua", "ortu":
		return RoleGuardian, nil
	case "teacher", "guru":
		return RoleTeacher, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", raw)
}

// Holder identifies who is linked to a child: either a placeholder code
// handed out before the person ever talked to the bot ("code:AB12"), or a
// resolved Telegram chat id ("tg:12345"). The two forms never mix in one
// lookup; link rows are rewritten from placeholder to resolved form the
// first time the owner starts a session.
type Holder string

func PlaceholderHolder(code string) Holder {
	return Holder("code:" + code)
}

func ResolvedHolder(chatID int64) Holder {
	return Holder("tg:" + strconv.FormatInt(chatID, 10))
}

func (h Holder) IsPlaceholder() bool {
	return strings.HasPrefix(string(h), "code:")
}

// Code returns the placeholder code, or "" for a resolved holder.
func (h Holder) Code() string {
	if h.IsPlaceholder() {
		return strings.TrimPrefix(string(h), "code:")
	}
	return ""
}

// ChatID returns the resolved chat id and whether the holder is resolved.
func (h Holder) ChatID() (int64, bool) {
	raw, ok := strings.CutPrefix(string(h), "tg:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RoleLink ties a holder to a child with a role. A holder may be linked to
// many children and a child may have many guardians and teachers, but a
// given (holder, child, role) tuple exists at most once.
type RoleLink struct {
	ID           int64     `json:"id"`
	Holder       Holder    `json:"holder"`
	ChildID      int64     `json:"child_id"`
	Role         Role      `json:"role"`
	Note         string    `json:"note"`
	IsActive     bool      `json:"is_active"`
	RegisteredAt time.Time `json:"registered_at"`
}

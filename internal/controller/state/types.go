package state

import "time"

// UserState is the user's current position in a chat dialog.
type UserState string

const (
	StateNone UserState = ""

	// Registration dialog.
	StateChoosingRole         UserState = "choosing_role"
	StateAwaitingCodeGuardian UserState = "awaiting_code_guardian"
	StateAwaitingCodeTeacher  UserState = "awaiting_code_teacher"
)

// DialogTTL bounds how long an unfinished dialog stays alive. Stale
// entries are discarded lazily on the next read.
const DialogTTL = 10 * time.Minute

// userData holds a user's dialog position and when it last moved.
type userData struct {
	State     UserState
	UpdatedAt time.Time
}

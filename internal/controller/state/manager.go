package state

import (
	"sync"
	"time"
)

// Manager tracks per-user dialog states.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*userData // chatID -> userData
	now    func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*userData),
		now:    time.Now,
	}
}

// GetState returns the user's current dialog state. An entry older than
// DialogTTL counts as abandoned and reads as StateNone.
func (sm *Manager) GetState(chatID int64) UserState {
	sm.mu.RLock()
	data, exists := sm.states[chatID]
	sm.mu.RUnlock()

	if !exists {
		return StateNone
	}

	if sm.now().Sub(data.UpdatedAt) > DialogTTL {
		sm.ClearState(chatID)
		return StateNone
	}

	return data.State
}

// SetState moves the user to a dialog state. StateNone removes the entry.
func (sm *Manager) SetState(chatID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, chatID)
		return
	}

	sm.states[chatID] = &userData{
		State:     state,
		UpdatedAt: sm.now(),
	}
}

// ClearState removes the user's dialog state.
func (sm *Manager) ClearState(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, chatID)
}

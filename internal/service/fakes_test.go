package service

import (
	"context"
	"sync"
	"time"

	"github.com/danutirta/childguard_bot/internal/model"
	"go.uber.org/zap"
)

// In-memory fakes for the repository interfaces, plus recorders for the
// notifier and sensor bridge.

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeChildRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.Child
	nextID int64
}

func newFakeChildRepo() *fakeChildRepo {
	return &fakeChildRepo{byID: make(map[int64]*model.Child)}
}

func (r *fakeChildRepo) Create(_ context.Context, child *model.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	child.ID = r.nextID
	child.CreatedAt = time.Now()
	copied := *child
	r.byID[child.ID] = &copied
	return nil
}

func (r *fakeChildRepo) GetByID(_ context.Context, id int64) (*model.Child, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeChildRepo) GetByDeviceID(_ context.Context, deviceID string) (*model.Child, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.DeviceID == deviceID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeChildRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

type fakeCodeRepo struct {
	mu     sync.Mutex
	byCode map[string]*model.CodeMapping
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{byCode: make(map[string]*model.CodeMapping)}
}

func (r *fakeCodeRepo) Claim(_ context.Context, m *model.CodeMapping) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byCode[m.UserCode]; taken {
		return false, nil
	}
	for _, existing := range r.byCode {
		if existing.ChatID == m.ChatID {
			return false, nil
		}
	}
	m.RegisteredAt = time.Now()
	copied := *m
	r.byCode[m.UserCode] = &copied
	return true, nil
}

func (r *fakeCodeRepo) GetByCode(_ context.Context, code string) (*model.CodeMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byCode[code]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeCodeRepo) GetByChatID(_ context.Context, chatID int64) (*model.CodeMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byCode {
		if m.ChatID == chatID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeLinkRepo struct {
	mu       sync.Mutex
	links    []*model.RoleLink
	children *fakeChildRepo
	nextID   int64
}

func newFakeLinkRepo(children *fakeChildRepo) *fakeLinkRepo {
	return &fakeLinkRepo{children: children}
}

func (r *fakeLinkRepo) Create(_ context.Context, link *model.RoleLink) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Holder == link.Holder && l.ChildID == link.ChildID && l.Role == link.Role {
			return false, nil
		}
	}
	r.nextID++
	link.ID = r.nextID
	link.IsActive = true
	link.RegisteredAt = time.Now()
	copied := *link
	r.links = append(r.links, &copied)
	return true, nil
}

func (r *fakeLinkRepo) ChildrenForHolder(ctx context.Context, holder model.Holder, role model.Role) ([]*model.Child, error) {
	r.mu.Lock()
	var ids []int64
	for _, l := range r.links {
		if l.Holder == holder && l.Role == role && l.IsActive {
			ids = append(ids, l.ChildID)
		}
	}
	r.mu.Unlock()

	var children []*model.Child
	for _, id := range ids {
		child, err := r.children.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	return children, nil
}

func (r *fakeLinkRepo) HoldersForChild(_ context.Context, childID int64, role model.Role) ([]model.Holder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var holders []model.Holder
	for _, l := range r.links {
		if l.ChildID == childID && l.Role == role && l.IsActive {
			holders = append(holders, l.Holder)
		}
	}
	return holders, nil
}

func (r *fakeLinkRepo) FirstActiveRole(_ context.Context, holder model.Holder) (model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Holder == holder && l.IsActive {
			return l.Role, nil
		}
	}
	return model.RoleUnknown, nil
}

func (r *fakeLinkRepo) ResolveHolder(_ context.Context, code string, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rewritten int64
	placeholder := model.PlaceholderHolder(code)
	for _, l := range r.links {
		if l.Holder == placeholder {
			l.Holder = model.ResolvedHolder(chatID)
			rewritten++
		}
	}
	return rewritten, nil
}

func (r *fakeLinkRepo) DeactivateForHolder(_ context.Context, holder model.Holder, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Holder == holder && l.Role == role {
			l.IsActive = false
		}
	}
	return nil
}

type fakeSessionRepo struct {
	mu     sync.Mutex
	rows   map[int64]*model.MonitoringSession
	nextID int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: make(map[int64]*model.MonitoringSession)}
}

func (r *fakeSessionRepo) Start(_ context.Context, s *model.MonitoringSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GuardianChatID == s.GuardianChatID && row.ChildID == s.ChildID && row.IsActive {
			*s = *row
			return nil
		}
	}
	r.nextID++
	s.ID = r.nextID
	s.IsActive = true
	s.StartTime = time.Now()
	copied := *s
	r.rows[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetActive(_ context.Context) ([]*model.MonitoringSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*model.MonitoringSession
	for _, row := range r.rows {
		if row.IsActive {
			copied := *row
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (r *fakeSessionRepo) UpdateFlags(_ context.Context, id int64, near, arrived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.NearSchool = near
		row.Arrived = arrived
	}
	return nil
}

func (r *fakeSessionRepo) End(_ context.Context, id int64, endTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.IsActive = false
		row.Arrived = false
		row.EndTime = &endTime
	}
	return nil
}

func (r *fakeSessionRepo) EndAllForGuardian(_ context.Context, guardianChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, row := range r.rows {
		if row.GuardianChatID == guardianChatID && row.IsActive {
			row.IsActive = false
			row.EndTime = &now
		}
	}
	return nil
}

func (r *fakeSessionRepo) CountActive(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) get(id int64) model.MonitoringSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.rows[id]
}

type recordingNotifier struct {
	mu      sync.Mutex
	intents []model.Intent
}

func (n *recordingNotifier) Dispatch(_ context.Context, intent model.Intent) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intent)
	return 1, nil
}

func (n *recordingNotifier) kinds() []model.IntentKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []model.IntentKind
	for _, it := range n.intents {
		kinds = append(kinds, it.Kind)
	}
	return kinds
}

type recordingBridge struct {
	mu      sync.Mutex
	devices []string
}

func (b *recordingBridge) GuardianNearby(_ context.Context, deviceID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append(b.devices, deviceID)
	return nil
}

func (b *recordingBridge) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.devices...)
}

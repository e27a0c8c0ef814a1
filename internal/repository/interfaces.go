package repository

import (
	"context"
	"time"

	"github.com/danutirta/childguard_bot/internal/model"
)

// ChildRepository defines the interface for child registry operations
type ChildRepository interface {
	Create(ctx context.Context, child *model.Child) error
	GetByID(ctx context.Context, id int64) (*model.Child, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*model.Child, error)
	Count(ctx context.Context) (int, error)
}

// CodeMappingRepository defines the interface for registration code claims
type CodeMappingRepository interface {
	// Claim atomically inserts the mapping. It reports false without error
	// when the code or chat id is already taken; the caller decides whether
	// that is an idempotent re-claim or a conflict.
	Claim(ctx context.Context, m *model.CodeMapping) (bool, error)
	GetByCode(ctx context.Context, code string) (*model.CodeMapping, error)
	GetByChatID(ctx context.Context, chatID int64) (*model.CodeMapping, error)
}

// RoleLinkRepository defines the interface for holder-child relationships
type RoleLinkRepository interface {
	// Create inserts the link, reporting false when the (holder, child,
	// role) tuple already exists.
	Create(ctx context.Context, link *model.RoleLink) (bool, error)
	ChildrenForHolder(ctx context.Context, holder model.Holder, role model.Role) ([]*model.Child, error)
	HoldersForChild(ctx context.Context, childID int64, role model.Role) ([]model.Holder, error)
	FirstActiveRole(ctx context.Context, holder model.Holder) (model.Role, error)
	// ResolveHolder rewrites all links still keyed by the placeholder code
	// to the resolved chat id, returning the number of rows rewritten.
	ResolveHolder(ctx context.Context, code string, chatID int64) (int64, error)
	DeactivateForHolder(ctx context.Context, holder model.Holder, role model.Role) error
}

// SessionRepository defines the interface for the durable session log
type SessionRepository interface {
	// Start opens a session for (guardian, child), or returns the already
	// open one.
	Start(ctx context.Context, s *model.MonitoringSession) error
	GetActive(ctx context.Context) ([]*model.MonitoringSession, error)
	UpdateFlags(ctx context.Context, id int64, near, arrived bool) error
	End(ctx context.Context, id int64, endTime time.Time) error
	EndAllForGuardian(ctx context.Context, guardianChatID int64) error
	CountActive(ctx context.Context) (int, error)
}

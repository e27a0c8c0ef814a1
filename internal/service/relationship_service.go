package service

import (
	"context"
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/repository"
	"go.uber.org/zap"
)

// RelationshipService owns children and their links to guardians and
// teachers.
type RelationshipService struct {
	children repository.ChildRepository
	links    repository.RoleLinkRepository
	codes    repository.CodeMappingRepository
	sessions repository.SessionRepository
	logger   *zap.Logger
}

func NewRelationshipService(
	children repository.ChildRepository,
	links repository.RoleLinkRepository,
	codes repository.CodeMappingRepository,
	sessions repository.SessionRepository,
	logger *zap.Logger,
) *RelationshipService {
	return &RelationshipService{
		children: children,
		links:    links,
		codes:    codes,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterChild registers a child with its sensor device. Administrative
// action; children are never auto-deleted.
func (s *RelationshipService) RegisterChild(ctx context.Context, name, deviceID string) (*model.Child, error) {
	existing, err := s.children.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("check device: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateDevice
	}

	child := &model.Child{Name: name, DeviceID: deviceID}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("register child: %w", err)
	}

	s.logger.Info("Child registered",
		zap.Int64("child_id", child.ID),
		zap.String("device_id", deviceID),
	)

	return child, nil
}

// LinkChild links the owner of a registration code to a child. If the code
// is already claimed the link is keyed by the resolved chat id, otherwise
// by the placeholder code until the owner registers.
func (s *RelationshipService) LinkChild(ctx context.Context, deviceID, code string, role model.Role, note string) (*model.Child, error) {
	child, err := s.children.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("find child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	holder := model.PlaceholderHolder(code)
	mapping, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check code: %w", err)
	}
	if mapping != nil {
		holder = model.ResolvedHolder(mapping.ChatID)
	}

	link := &model.RoleLink{
		Holder:  holder,
		ChildID: child.ID,
		Role:    role,
		Note:    note,
	}

	created, err := s.links.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("link child: %w", err)
	}
	if !created {
		return nil, ErrDuplicateLink
	}

	s.logger.Info("Child linked",
		zap.Int64("child_id", child.ID),
		zap.String("holder", string(holder)),
		zap.String("role", string(role)),
	)

	return child, nil
}

// ChildrenFor lists children actively linked to the chat under the role.
func (s *RelationshipService) ChildrenFor(ctx context.Context, chatID int64, role model.Role) ([]*model.Child, error) {
	return s.links.ChildrenForHolder(ctx, model.ResolvedHolder(chatID), role)
}

// ChildByID looks up a child.
func (s *RelationshipService) ChildByID(ctx context.Context, id int64) (*model.Child, error) {
	return s.children.GetByID(ctx, id)
}

// ChildByDeviceID looks up a child by its sensor device.
func (s *RelationshipService) ChildByDeviceID(ctx context.Context, deviceID string) (*model.Child, error) {
	return s.children.GetByDeviceID(ctx, deviceID)
}

// HoldersFor lists the resolved chat ids actively linked to the child under
// the role. Placeholder holders have no chat to message and are skipped.
func (s *RelationshipService) HoldersFor(ctx context.Context, childID int64, role model.Role) ([]int64, error) {
	holders, err := s.links.HoldersForChild(ctx, childID, role)
	if err != nil {
		return nil, err
	}

	var chatIDs []int64
	for _, h := range holders {
		if chatID, ok := h.ChatID(); ok {
			chatIDs = append(chatIDs, chatID)
		}
	}

	return chatIDs, nil
}

// RoleOf reports the role of the chat's first active link. Holders are
// expected to hold one role across all their children.
func (s *RelationshipService) RoleOf(ctx context.Context, chatID int64) (model.Role, error) {
	return s.links.FirstActiveRole(ctx, model.ResolvedHolder(chatID))
}

// ResetHolder deactivates every link of the chat under the role and closes
// its open sessions. Irreversible without re-registration by the admin.
func (s *RelationshipService) ResetHolder(ctx context.Context, chatID int64, role model.Role) error {
	holder := model.ResolvedHolder(chatID)

	if err := s.links.DeactivateForHolder(ctx, holder, role); err != nil {
		return fmt.Errorf("reset holder links: %w", err)
	}

	if role == model.RoleGuardian {
		if err := s.sessions.EndAllForGuardian(ctx, chatID); err != nil {
			return fmt.Errorf("reset holder sessions: %w", err)
		}
	}

	s.logger.Info("Holder reset",
		zap.Int64("chat_id", chatID),
		zap.String("role", string(role)),
	)

	return nil
}

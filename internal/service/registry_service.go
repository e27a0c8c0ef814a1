package service

import (
	"context"
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/repository"
	"go.uber.org/zap"
)

// RegistryService owns the durable mapping from short registration codes to
// Telegram chats. Codes are handed out by the administrator before the
// person ever opens the bot, so child links may be pre-wired against the
// code and are rewritten to the real chat id once the owner shows up.
type RegistryService struct {
	codes  repository.CodeMappingRepository
	links  repository.RoleLinkRepository
	logger *zap.Logger
}

func NewRegistryService(
	codes repository.CodeMappingRepository,
	links repository.RoleLinkRepository,
	logger *zap.Logger,
) *RegistryService {
	return &RegistryService{
		codes:  codes,
		links:  links,
		logger: logger,
	}
}

// ClaimCode claims a registration code for the chat. Re-claiming one's own
// code is a no-op; a code held by a different chat is rejected without
// touching the existing mapping. Under concurrent claims of the same code
// the database guarantees exactly one winner.
func (s *RegistryService) ClaimCode(ctx context.Context, code string, chatID int64, role model.Role) (*model.CodeMapping, error) {
	existing, err := s.codes.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	if existing != nil {
		if existing.UserCode == code {
			return existing, nil
		}
		return nil, ErrAlreadyRegistered
	}

	mapping := &model.CodeMapping{
		UserCode: code,
		ChatID:   chatID,
		Role:     role,
	}

	claimed, err := s.codes.Claim(ctx, mapping)
	if err != nil {
		return nil, fmt.Errorf("claim code: %w", err)
	}

	if !claimed {
		holder, err := s.codes.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check code holder: %w", err)
		}
		if holder != nil && holder.ChatID == chatID {
			return holder, nil
		}
		if holder != nil {
			return nil, ErrAlreadyClaimed
		}
		// The insert lost to a concurrent claim of this chat id.
		return nil, ErrAlreadyRegistered
	}

	s.logger.Info("Code claimed",
		zap.String("code", code),
		zap.Int64("chat_id", chatID),
		zap.String("role", string(role)),
	)

	return mapping, nil
}

// Resolve looks up the registration of a chat. Returns nil when the chat
// never claimed a code.
func (s *RegistryService) Resolve(ctx context.Context, chatID int64) (*model.CodeMapping, error) {
	return s.codes.GetByChatID(ctx, chatID)
}

// ResolveLinks rewrites role links still keyed by the mapping's placeholder
// code to the resolved chat id. Run on every session start; after the first
// run it finds nothing to rewrite.
func (s *RegistryService) ResolveLinks(ctx context.Context, mapping *model.CodeMapping) (int64, error) {
	rewritten, err := s.links.ResolveHolder(ctx, mapping.UserCode, mapping.ChatID)
	if err != nil {
		return 0, fmt.Errorf("resolve links: %w", err)
	}

	if rewritten > 0 {
		s.logger.Info("Placeholder links resolved",
			zap.String("code", mapping.UserCode),
			zap.Int64("chat_id", mapping.ChatID),
			zap.Int64("links", rewritten),
		)
	}

	return rewritten, nil
}

package handlers

import (
	"github.com/danutirta/childguard_bot/internal/controller/state"
	"github.com/danutirta/childguard_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers bundles the dependencies of all command handlers.
type Handlers struct {
	registry     *service.RegistryService
	relationship *service.RelationshipService
	monitor      *service.MonitorService
	stateManager *state.Manager
	adminChatID  int64
	logger       *zap.Logger
}

func NewHandlers(
	registry *service.RegistryService,
	relationship *service.RelationshipService,
	monitor *service.MonitorService,
	stateManager *state.Manager,
	adminChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		registry:     registry,
		relationship: relationship,
		monitor:      monitor,
		stateManager: stateManager,
		adminChatID:  adminChatID,
		logger:       logger,
	}
}

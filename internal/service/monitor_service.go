package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/danutirta/childguard_bot/internal/geo"
	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier fans a notification intent out to its audience, returning how
// many recipients were reached.
type Notifier interface {
	Dispatch(ctx context.Context, intent model.Intent) (int, error)
}

// SensorBridge tells the sensor platform that a guardian is close to the
// school, addressed by the child's device.
type SensorBridge interface {
	GuardianNearby(ctx context.Context, deviceID string) error
}

type sessionKey struct {
	guardianChatID int64
	childID        int64
}

// sessionState is one live (guardian, child) session. Its own mutex
// serializes concurrent position and confirmation updates for this key;
// different keys never contend.
type sessionState struct {
	mu sync.Mutex

	row   model.MonitoringSession
	child *model.Child

	// awaitingConfirm marks the AwaitingConfirmation state: a pickup prompt
	// is out and the next ya/tidak applies to this session. The arrived
	// flag alone cannot encode this, because a "tidak" drops the session
	// back to Monitoring while keeping arrived set.
	awaitingConfirm bool
}

// MonitorService is the geofence-driven session state machine. One session
// per (guardian, child); position updates classify against the school
// anchor with two nested radii and hysteresis on both thresholds.
type MonitorService struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*sessionState

	repo     repository.SessionRepository
	rel      *RelationshipService
	notifier Notifier
	bridge   SensorBridge

	anchor      geo.Point
	proximityKm float64
	arrivalKm   float64

	logger *zap.Logger
	now    func() time.Time
}

func NewMonitorService(
	repo repository.SessionRepository,
	rel *RelationshipService,
	notifier Notifier,
	bridge SensorBridge,
	anchor geo.Point,
	proximityKm, arrivalKm float64,
	logger *zap.Logger,
) *MonitorService {
	return &MonitorService{
		sessions:    make(map[sessionKey]*sessionState),
		repo:        repo,
		rel:         rel,
		notifier:    notifier,
		bridge:      bridge,
		anchor:      anchor,
		proximityKm: proximityKm,
		arrivalKm:   arrivalKm,
		logger:      logger,
		now:         time.Now,
	}
}

// Restore rebuilds the in-memory session table from the durable log after a
// restart. Open sessions come back as Monitoring(far); proximity flags are
// re-earned from the next position update.
func (s *MonitorService) Restore(ctx context.Context) error {
	rows, err := s.repo.GetActive(ctx)
	if err != nil {
		return err
	}

	restored := 0
	for _, row := range rows {
		child, err := s.rel.ChildByID(ctx, row.ChildID)
		if err != nil {
			return err
		}
		if child == nil {
			s.logger.Warn("Open session references unknown child",
				zap.Int64("session_id", row.ID),
				zap.Int64("child_id", row.ChildID))
			continue
		}

		if row.NearSchool || row.Arrived {
			row.NearSchool = false
			row.Arrived = false
			if err := s.repo.UpdateFlags(ctx, row.ID, false, false); err != nil {
				return err
			}
		}

		key := sessionKey{row.GuardianChatID, row.ChildID}
		s.mu.Lock()
		s.sessions[key] = &sessionState{row: *row, child: child}
		s.mu.Unlock()
		restored++
	}

	if restored > 0 {
		s.logger.Info("Sessions restored", zap.Int("count", restored))
	}

	return nil
}

// Activate opens one session per child linked to the guardian. Idempotent:
// children with an open session keep it untouched. Fails with ErrNoChildren
// when the guardian has no active child links.
func (s *MonitorService) Activate(ctx context.Context, guardianChatID int64) ([]*model.Child, error) {
	children, err := s.rel.ChildrenFor(ctx, guardianChatID, model.RoleGuardian)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrNoChildren
	}

	for _, child := range children {
		key := sessionKey{guardianChatID, child.ID}

		s.mu.RLock()
		_, exists := s.sessions[key]
		s.mu.RUnlock()
		if exists {
			continue
		}

		row := model.MonitoringSession{
			GuardianChatID: guardianChatID,
			ChildID:        child.ID,
		}
		if err := s.repo.Start(ctx, &row); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if _, exists := s.sessions[key]; !exists {
			s.sessions[key] = &sessionState{row: row, child: child}
		}
		s.mu.Unlock()

		s.logger.Info("Monitoring session started",
			zap.Int64("guardian", guardianChatID),
			zap.Int64("child_id", child.ID),
			zap.String("child", child.Name),
		)
	}

	return children, nil
}

// OnPosition evaluates a guardian position against every session of that
// guardian. A guardian with no active sessions is silently dropped. Each
// child's state moves independently; one notification per child per
// transition.
func (s *MonitorService) OnPosition(ctx context.Context, guardianChatID int64, lat, lon float64) {
	states := s.guardianSessions(guardianChatID)
	if len(states) == 0 {
		return
	}

	pos := geo.Point{Lat: lat, Lon: lon}
	distance := geo.DistanceKm(pos, s.anchor)
	zone := geo.Classify(pos, s.anchor, s.proximityKm, s.arrivalKm)

	for _, st := range states {
		s.advance(ctx, st, zone, distance)
	}
}

// advance applies one classified reading to one session.
func (s *MonitorService) advance(ctx context.Context, st *sessionState, zone geo.Zone, distance float64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.row.IsActive {
		return
	}

	var intents []model.Intent
	var nearbyDevice string
	dirty := false

	switch zone {
	case geo.ZoneFar:
		// Leaving the proximity radius re-arms the near notification;
		// leaving the arrival radius re-arms the pickup prompt.
		if st.row.NearSchool {
			st.row.NearSchool = false
			dirty = true
		}
		if st.row.Arrived && !st.awaitingConfirm {
			st.row.Arrived = false
			dirty = true
		}

	case geo.ZoneNear:
		if !st.row.NearSchool {
			st.row.NearSchool = true
			dirty = true
			intents = append(intents, s.intent(model.IntentNearSchool, st, distance))
			nearbyDevice = st.child.DeviceID
		}
		if st.row.Arrived && !st.awaitingConfirm {
			st.row.Arrived = false
			dirty = true
		}

	case geo.ZoneArrived:
		// Arrival implies near: the near notification always precedes the
		// pickup prompt in the session's stream.
		if !st.row.NearSchool {
			st.row.NearSchool = true
			dirty = true
			intents = append(intents, s.intent(model.IntentNearSchool, st, distance))
			nearbyDevice = st.child.DeviceID
		}
		if !st.row.Arrived {
			st.row.Arrived = true
			st.awaitingConfirm = true
			dirty = true
			intents = append(intents, s.intent(model.IntentPickupPrompt, st, distance))
		}
	}

	// Persist before notifying; a send failure never rolls back the
	// transition.
	if dirty {
		if err := s.repo.UpdateFlags(ctx, st.row.ID, st.row.NearSchool, st.row.Arrived); err != nil {
			s.logger.Error("Failed to persist session flags",
				zap.Int64("session_id", st.row.ID), zap.Error(err))
		}
	}

	if nearbyDevice != "" {
		if err := s.bridge.GuardianNearby(ctx, nearbyDevice); err != nil {
			s.logger.Warn("Sensor bridge call failed",
				zap.String("device_id", nearbyDevice), zap.Error(err))
		}
	}

	s.dispatchAll(ctx, intents)
}

// OnConfirmation applies a ya/tidak reply to every session of the guardian
// currently awaiting pickup confirmation. Any other text, or a reply with
// nothing awaiting, is reported unhandled with no state change.
func (s *MonitorService) OnConfirmation(ctx context.Context, guardianChatID int64, answer string) bool {
	var yes bool
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "ya":
		yes = true
	case "tidak":
		yes = false
	default:
		return false
	}

	handled := false
	for _, st := range s.guardianSessions(guardianChatID) {
		st.mu.Lock()
		if !st.awaitingConfirm || !st.row.IsActive {
			st.mu.Unlock()
			continue
		}
		handled = true

		var intents []model.Intent
		if yes {
			st.awaitingConfirm = false
			st.row.Arrived = false
			st.row.IsActive = false
			end := s.now()
			st.row.EndTime = &end

			if err := s.repo.End(ctx, st.row.ID, end); err != nil {
				s.logger.Error("Failed to end session",
					zap.Int64("session_id", st.row.ID), zap.Error(err))
			}
			s.forget(st)

			intents = append(intents, s.intent(model.IntentMonitoringStopped, st, 0))

			s.logger.Info("Pickup confirmed, session ended",
				zap.Int64("guardian", guardianChatID),
				zap.Int64("child_id", st.row.ChildID),
			)
		} else {
			// Back to Monitoring(near). Arrived stays set: a repeated
			// in-radius reading will not re-prompt until the guardian
			// leaves the arrival radius and returns.
			st.awaitingConfirm = false
			intents = append(intents, s.intent(model.IntentMonitoringContinued, st, 0))
		}
		st.mu.Unlock()

		s.dispatchAll(ctx, intents)
	}

	return handled
}

// Reset forcibly clears every session of the guardian and delegates the
// persistence cleanup, links included, to the relationship store.
func (s *MonitorService) Reset(ctx context.Context, guardianChatID int64, role model.Role) error {
	s.mu.Lock()
	for key := range s.sessions {
		if key.guardianChatID == guardianChatID {
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()

	return s.rel.ResetHolder(ctx, guardianChatID, role)
}

// ActiveSessions snapshots the guardian's open sessions for display.
func (s *MonitorService) ActiveSessions(guardianChatID int64) []model.MonitoringSession {
	var rows []model.MonitoringSession
	for _, st := range s.guardianSessions(guardianChatID) {
		st.mu.Lock()
		if st.row.IsActive {
			rows = append(rows, st.row)
		}
		st.mu.Unlock()
	}
	return rows
}

// ChildName resolves the child name of a session for display.
func (s *MonitorService) ChildName(guardianChatID, childID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.sessions[sessionKey{guardianChatID, childID}]; ok {
		return st.child.Name
	}
	return ""
}

func (s *MonitorService) guardianSessions(guardianChatID int64) []*sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var states []*sessionState
	for key, st := range s.sessions {
		if key.guardianChatID == guardianChatID {
			states = append(states, st)
		}
	}
	return states
}

// forget drops the session from the in-memory table. Caller holds st.mu.
func (s *MonitorService) forget(st *sessionState) {
	s.mu.Lock()
	delete(s.sessions, sessionKey{st.row.GuardianChatID, st.row.ChildID})
	s.mu.Unlock()
}

func (s *MonitorService) intent(kind model.IntentKind, st *sessionState, distance float64) model.Intent {
	return model.Intent{
		ID:             uuid.New(),
		Kind:           kind,
		GuardianChatID: st.row.GuardianChatID,
		Child:          st.child,
		DistanceKm:     distance,
		When:           s.now(),
	}
}

func (s *MonitorService) dispatchAll(ctx context.Context, intents []model.Intent) {
	for _, it := range intents {
		if _, err := s.notifier.Dispatch(ctx, it); err != nil {
			s.logger.Warn("Notification dispatch failed",
				zap.String("kind", string(it.Kind)),
				zap.Int64("guardian", it.GuardianChatID),
				zap.Error(err))
		}
	}
}

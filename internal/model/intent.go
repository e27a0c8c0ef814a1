package model

import (
	"time"

	"github.com/google/uuid"
)

// IntentKind classifies a notification intent emitted by the session state
// machine or the fall-alert path.
type IntentKind string

const (
	IntentNearSchool          IntentKind = "near_school"
	IntentPickupPrompt        IntentKind = "pickup_prompt"
	IntentMonitoringContinued IntentKind = "monitoring_continued"
	IntentMonitoringStopped   IntentKind = "monitoring_stopped"
	IntentFallAlert           IntentKind = "fall_alert"
)

// Intent is a routing-free notification request. The dispatcher resolves
// the audience: pickup-flow intents go to the initiating guardian only,
// fall alerts to every active teacher of the child.
type Intent struct {
	ID             uuid.UUID
	Kind           IntentKind
	GuardianChatID int64
	Child          *Child
	DistanceKm     float64
	When           time.Time
}

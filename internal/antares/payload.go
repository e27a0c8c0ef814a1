// Package antares speaks the oneM2M dialect of the sensor platform: it
// normalizes the several webhook shapes the platform delivers into one
// canonical event, and posts guardian-nearby signals back.
package antares

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// ConditionFall is the only condition that triggers alerting; every
	// other condition value is accepted and ignored.
	ConditionFall = "terjatuh"
	// ConditionGuardianNearby is the condition posted back to the platform
	// when a guardian enters the proximity radius.
	ConditionGuardianNearby = "posisi_ortu_dekat"
)

var (
	ErrInvalidJSON        = errors.New("malformed payload JSON")
	ErrUnrecognizedFormat = errors.New("unrecognized payload format")
)

// Event is the canonical (device, condition) pair resolved from a webhook
// body. Handshake events answer the platform's subscription verification
// and carry no business effect.
type Event struct {
	Handshake bool
	DeviceID  string
	Condition string
}

// content is the instance payload the sensor embeds, double-encoded as a
// JSON string inside "con".
type content struct {
	Condition string `json:"kondisi"`
	DeviceID  string `json:"device_id"`
}

type contentInstance struct {
	Con string `json:"con"`
}

type subscriptionNotice struct {
	Vrq bool `json:"m2m:vrq"`
	Nev *struct {
		Rep *struct {
			Cin *contentInstance `json:"m2m:cin"`
		} `json:"m2m:rep"`
	} `json:"m2m:nev"`
}

// envelope covers every wire shape the platform is known to send.
type envelope struct {
	Sgn       *subscriptionNotice `json:"m2m:sgn"`
	Cin       *contentInstance    `json:"m2m:cin"`
	Condition *string             `json:"kondisi"`
	DeviceID  string              `json:"device_id"`
}

// matcher inspects the decoded envelope and either claims it or passes.
type matcher func(*envelope) (*Event, bool, error)

// Matchers in fixed precedence order: verification handshake, then
// notification-wrapped content, then direct content instance, then the
// already-flat form. First match wins.
var matchers = []matcher{
	matchHandshake,
	matchNotification,
	matchContentInstance,
	matchFlat,
}

// Normalize parses one webhook body into the canonical event.
func Normalize(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	for _, match := range matchers {
		event, ok, err := match(&env)
		if err != nil {
			return nil, err
		}
		if ok {
			return event, nil
		}
	}

	return nil, ErrUnrecognizedFormat
}

func matchHandshake(env *envelope) (*Event, bool, error) {
	if env.Sgn == nil || !env.Sgn.Vrq {
		return nil, false, nil
	}
	return &Event{Handshake: true}, true, nil
}

func matchNotification(env *envelope) (*Event, bool, error) {
	if env.Sgn == nil || env.Sgn.Nev == nil || env.Sgn.Nev.Rep == nil || env.Sgn.Nev.Rep.Cin == nil {
		return nil, false, nil
	}
	event, err := decodeContent(env.Sgn.Nev.Rep.Cin.Con)
	if err != nil {
		return nil, false, err
	}
	return event, true, nil
}

func matchContentInstance(env *envelope) (*Event, bool, error) {
	if env.Cin == nil {
		return nil, false, nil
	}
	event, err := decodeContent(env.Cin.Con)
	if err != nil {
		return nil, false, err
	}
	return event, true, nil
}

func matchFlat(env *envelope) (*Event, bool, error) {
	if env.Condition == nil {
		return nil, false, nil
	}
	return &Event{Condition: *env.Condition, DeviceID: env.DeviceID}, true, nil
}

func decodeContent(con string) (*Event, error) {
	var c content
	if err := json.Unmarshal([]byte(con), &c); err != nil {
		return nil, fmt.Errorf("%w: embedded content: %v", ErrInvalidJSON, err)
	}
	return &Event{Condition: c.Condition, DeviceID: c.DeviceID}, nil
}

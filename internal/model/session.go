package model

import "time"

// MonitoringSession is one guardian escorting one child. A guardian walking
// two children to school holds two sessions, each with its own proximity
// flags. Sessions are never deleted, only marked inactive.
type MonitoringSession struct {
	ID             int64      `json:"id"`
	GuardianChatID int64      `json:"guardian_chat_id"`
	ChildID        int64      `json:"child_id"`
	NearSchool     bool       `json:"near_school"`
	Arrived        bool       `json:"arrived"`
	IsActive       bool       `json:"is_active"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
}

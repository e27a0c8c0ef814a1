package model

import "time"

// Child is a monitored child. Each child carries exactly one wearable
// sensor, identified by DeviceID.
type Child struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

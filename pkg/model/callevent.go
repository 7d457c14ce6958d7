package model

import "time"

// CallEvent is a phone event (missed call etc.) reported by a device
type CallEvent struct {
	ID        int64
	ChannelID int64
	Phone     string
	EventType string
	Time      time.Time
	Duration  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

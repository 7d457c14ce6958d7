package model

import "time"

// SyncEvent is one snapshot of a device's state at a sync transaction.
// Immutable after creation except for OutgoingCount, which is written once
// at the end of the transaction.
type SyncEvent struct {
	ID        int64
	ChannelID int64

	PowerSource string
	PowerStatus string
	PowerLevel  int
	NetworkType string

	PendingCount  int
	RetryCount    int
	IncomingCount int
	OutgoingCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

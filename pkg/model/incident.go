package model

import "time"

const IncidentTypeOutdatedApp = "outdated_app"

// Incident is an operator-visible alert with a lifecycle. Only one incident
// of a given type may be open per channel at a time.
type Incident struct {
	ID           int64
	ChannelID    int64
	IncidentType string
	OpenedAt     time.Time
	ClosedAt     time.Time // zero while the incident is open

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the incident has not been closed yet.
func (i *Incident) Open() bool {
	return i.ClosedAt.IsZero()
}

package storage

import (
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Channels() ChannelStore
	Msgs() MsgStore
	SyncEvents() SyncEventStore
	CallEvents() CallEventStore
	Incidents() IncidentStore
}

// ChannelStore is responsible for managing the Channel model
type ChannelStore interface {
	FetchAll() (map[int64]model.Channel, error)
	FindByID(id int64) (*model.Channel, error)
	FindByDeviceUUID(uuid string) (*model.Channel, error)
	FindByClaimCode(code string) (*model.Channel, error)
	Create(m *model.Channel) error
	Update(m *model.Channel) error
	UpdateConfig(id int64, cfg model.ChannelConfig) error
	TouchLastSeen(id int64, t time.Time) error
	Claim(id int64, orgID int64, address string) error
	Release(id int64) error
}

// MsgStore is responsible for managing the outbound Msg model
type MsgStore interface {
	FindByID(id int64) (*model.Msg, error)
	FetchQueued(channelID int64) ([]model.Msg, error)
	Create(m *model.Msg) error
	UpdateStatus(id int64, status model.MsgStatus, sentOn time.Time) error
}

// SyncEventStore is responsible for managing the SyncEvent model
type SyncEventStore interface {
	FindByID(id int64) (*model.SyncEvent, error)
	FetchByChannel(channelID int64) ([]model.SyncEvent, error)
	Create(m *model.SyncEvent) error
	UpdateOutgoingCount(id int64, count int) error
}

// CallEventStore is responsible for managing the CallEvent model
type CallEventStore interface {
	FetchByChannel(channelID int64) ([]model.CallEvent, error)
	Create(m *model.CallEvent) error
}

// IncidentStore is responsible for managing the Incident model
type IncidentStore interface {
	FindOpen(channelID int64, incidentType string) (*model.Incident, error)
	Create(m *model.Incident) error
	Close(id int64, t time.Time) error
}

package postgres

import (
	"github.com/jmoiron/sqlx"
	"github.com/rapidpro/relayd/pkg/storage"
)

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	channels   *channelStore
	msgs       *msgStore
	syncEvents *syncEventStore
	callEvents *callEventStore
	incidents  *incidentStore
}

// NewStore creates a new PostgreSQL based Storage interface
func NewStore(db *sqlx.DB) storage.Interface {
	return &store{
		channels:   newChannelStore(db),
		msgs:       newMsgStore(db),
		syncEvents: newSyncEventStore(db),
		callEvents: newCallEventStore(db),
		incidents:  newIncidentStore(db),
	}
}

// Channels returns a sub-store for managing the Channel model
func (s *store) Channels() storage.ChannelStore {
	return s.channels
}

// Msgs returns a sub-store for managing the outbound Msg model
func (s *store) Msgs() storage.MsgStore {
	return s.msgs
}

// SyncEvents returns a sub-store for managing the SyncEvent model
func (s *store) SyncEvents() storage.SyncEventStore {
	return s.syncEvents
}

// CallEvents returns a sub-store for managing the CallEvent model
func (s *store) CallEvents() storage.CallEventStore {
	return s.callEvents
}

// Incidents returns a sub-store for managing the Incident model
func (s *store) Incidents() storage.IncidentStore {
	return s.incidents
}

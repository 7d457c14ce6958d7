package memory

import "github.com/rapidpro/relayd/pkg/storage"

// store contains all memory-based sub-stores for managing the persistent models
type store struct {
	channels   *channelStore
	msgs       *msgStore
	syncEvents *syncEventStore
	callEvents *callEventStore
	incidents  *incidentStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		channels:   newChannelStore(),
		msgs:       newMsgStore(),
		syncEvents: newSyncEventStore(),
		callEvents: newCallEventStore(),
		incidents:  newIncidentStore(),
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

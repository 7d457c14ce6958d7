package memory

import (
	"sync"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

type incidentStore struct {
	store  map[int64]model.Incident
	nextID int64
	sync.RWMutex
}

func newIncidentStore() *incidentStore {
	return &incidentStore{
		store:  make(map[int64]model.Incident),
		nextID: 1,
	}
}

func (s *incidentStore) FindOpen(channelID int64, incidentType string) (*model.Incident, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.ChannelID == channelID && m.IncidentType == incidentType && m.ClosedAt.IsZero() {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *incidentStore) Create(m *model.Incident) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	if m.OpenedAt.IsZero() {
		m.OpenedAt = time.Now().Round(time.Second).UTC()
	}
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *incidentStore) Close(id int64, t time.Time) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.ClosedAt = t
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *incidentStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

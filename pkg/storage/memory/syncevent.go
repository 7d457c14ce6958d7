package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

type syncEventStore struct {
	store  map[int64]model.SyncEvent
	nextID int64
	sync.RWMutex
}

func newSyncEventStore() *syncEventStore {
	return &syncEventStore{
		store:  make(map[int64]model.SyncEvent),
		nextID: 1,
	}
}

func (s *syncEventStore) FindByID(id int64) (*model.SyncEvent, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *syncEventStore) FetchByChannel(channelID int64) ([]model.SyncEvent, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.SyncEvent, 0)
	for _, m := range s.store {
		if m.ChannelID == channelID {
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	return models, nil
}

func (s *syncEventStore) Create(m *model.SyncEvent) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *syncEventStore) UpdateOutgoingCount(id int64, count int) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.OutgoingCount = count
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *syncEventStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

type callEventStore struct {
	store  map[int64]model.CallEvent
	nextID int64
	sync.RWMutex
}

func newCallEventStore() *callEventStore {
	return &callEventStore{
		store:  make(map[int64]model.CallEvent),
		nextID: 1,
	}
}

func (s *callEventStore) FetchByChannel(channelID int64) ([]model.CallEvent, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.CallEvent, 0)
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

func (s *callEventStore) Create(m *model.CallEvent) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *callEventStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

type msgStore struct {
	store  map[int64]model.Msg
	nextID int64
	sync.RWMutex
}

func newMsgStore() *msgStore {
	return &msgStore{
		store:  make(map[int64]model.Msg),
		nextID: 1,
	}
}

func (s *msgStore) FindByID(id int64) (*model.Msg, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *msgStore) FetchQueued(channelID int64) ([]model.Msg, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Msg, 0)
	for _, m := range s.store {
		if m.ChannelID == channelID && m.Direction == model.MsgDirectionOut && m.Status == model.MsgStatusQueued {
			models = append(models, m)
		}
	}

	// Oldest first, the same order the postgres store returns
	sort.Slice(models, func(i, j int) bool {
		if models[i].QueuedOn.Equal(models[j].QueuedOn) {
			return models[i].ID < models[j].ID
		}
		return models[i].QueuedOn.Before(models[j].QueuedOn)
	})

	return models, nil
}

func (s *msgStore) Create(m *model.Msg) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	if m.Direction == "" {
		m.Direction = model.MsgDirectionOut
	}
	if m.Status == "" {
		m.Status = model.MsgStatusQueued
	}
	if m.QueuedOn.IsZero() {
		m.QueuedOn = time.Now().Round(time.Second).UTC()
	}
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *msgStore) UpdateStatus(id int64, status model.MsgStatus, sentOn time.Time) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.Status = status
	if !sentOn.IsZero() {
		m.SentOn = sentOn
	}
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *msgStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

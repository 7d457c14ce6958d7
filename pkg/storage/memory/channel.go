package memory

import (
	"sync"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

type channelStore struct {
	store  map[int64]model.Channel
	nextID int64
	sync.RWMutex
}

func newChannelStore() *channelStore {
	return &channelStore{
		store:  make(map[int64]model.Channel),
		nextID: 1,
	}
}

func (s *channelStore) FetchAll() (models map[int64]model.Channel, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[int64]model.Channel, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *channelStore) FindByID(id int64) (*model.Channel, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *channelStore) FindByDeviceUUID(uuid string) (*model.Channel, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.Config.DeviceUUID == uuid {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *channelStore) FindByClaimCode(code string) (*model.Channel, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.ClaimCode != "" && m.ClaimCode == code {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *channelStore) Create(m *model.Channel) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *channelStore) Update(m *model.Channel) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[m.ID]; !ok {
		return storage.ErrNotFound
	}

	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[m.ID] = *m

	return nil
}

func (s *channelStore) UpdateConfig(id int64, cfg model.ChannelConfig) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.Config = cfg
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *channelStore) TouchLastSeen(id int64, t time.Time) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.LastSeenAt = t
	s.store[id] = m

	return nil
}

func (s *channelStore) Claim(id int64, orgID int64, address string) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.OrgID = orgID
	m.Address = address
	m.ClaimCode = ""
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *channelStore) Release(id int64) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.OrgID = 0
	m.Secret = ""
	m.ClaimCode = ""
	m.Config = model.ChannelConfig{}
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *channelStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

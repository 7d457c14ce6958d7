package resource

import (
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

type SyncEventResource struct {
	ID            int64      `json:"id"`
	ChannelID     int64      `json:"channelId"`
	PowerSource   string     `json:"powerSource"`
	PowerStatus   string     `json:"powerStatus"`
	PowerLevel    int        `json:"powerLevel"`
	NetworkType   string     `json:"networkType"`
	PendingCount  int        `json:"pendingCount"`
	RetryCount    int        `json:"retryCount"`
	IncomingCount int        `json:"incomingCount"`
	OutgoingCount int        `json:"outgoingCount"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

type SyncEventListResource struct {
	Members []*SyncEventResource `json:"members"`
}

func NewSyncEvent(m *model.SyncEvent) (out *SyncEventResource) {
	out = &SyncEventResource{
		ID:            m.ID,
		ChannelID:     m.ChannelID,
		PowerSource:   m.PowerSource,
		PowerStatus:   m.PowerStatus,
		PowerLevel:    m.PowerLevel,
		NetworkType:   m.NetworkType,
		PendingCount:  m.PendingCount,
		RetryCount:    m.RetryCount,
		IncomingCount: m.IncomingCount,
		OutgoingCount: m.OutgoingCount,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}

	return // out
}

func NewSyncEventList(m []model.SyncEvent) (out *SyncEventListResource) {
	out = &SyncEventListResource{
		Members: make([]*SyncEventResource, 0),
	}

	for i := range m {
		out.Members = append(out.Members, NewSyncEvent(&m[i]))
	}

	return // out
}

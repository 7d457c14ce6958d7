package resource

import (
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

type CallEventResource struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channelId"`
	Phone     string     `json:"phone"`
	EventType string     `json:"eventType"`
	Time      *time.Time `json:"time,omitempty"`
	Duration  int        `json:"duration"`
}

type CallEventListResource struct {
	Members []*CallEventResource `json:"members"`
}

func NewCallEvent(m *model.CallEvent) (out *CallEventResource) {
	out = &CallEventResource{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Phone:     m.Phone,
		EventType: m.EventType,
		Duration:  m.Duration,
	}

	if !m.Time.IsZero() {
		out.Time = &time.Time{}
		*out.Time = m.Time.Round(time.Second)
	}

	return // out
}

func NewCallEventList(m []model.CallEvent) (out *CallEventListResource) {
	out = &CallEventListResource{
		Members: make([]*CallEventResource, 0),
	}

	for i := range m {
		out.Members = append(out.Members, NewCallEvent(&m[i]))
	}

	return // out
}

package resource

import (
	"fmt"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

type MsgResource struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channelId"`
	Direction string     `json:"direction"`
	URN       string     `json:"urn"`
	Text      string     `json:"text"`
	Status    string     `json:"status"`
	QueuedOn  *time.Time `json:"queuedOn,omitempty"`
	SentOn    *time.Time `json:"sentOn,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type MsgListResource struct {
	Members []*MsgResource `json:"members"`
}

func NewMsg(m *model.Msg) (out *MsgResource) {
	out = &MsgResource{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Direction: string(m.Direction),
		URN:       m.URNPath,
		Text:      m.Text,
		Status:    string(m.Status),
	}

	if !m.QueuedOn.IsZero() {
		out.QueuedOn = &time.Time{}
		*out.QueuedOn = m.QueuedOn.Round(time.Second)
	}
	if !m.SentOn.IsZero() {
		out.SentOn = &time.Time{}
		*out.SentOn = m.SentOn.Round(time.Second)
	}
	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewMsgList(m []model.Msg) (out *MsgListResource) {
	out = &MsgListResource{
		Members: make([]*MsgResource, 0),
	}

	for i := range m {
		out.Members = append(out.Members, NewMsg(&m[i]))
	}

	return // out
}

func ValidateMsg(r *MsgResource) (m *model.Msg, err error) {
	if r.URN == "" {
		return nil, fmt.Errorf("urn is required")
	}
	if r.Text == "" {
		return nil, fmt.Errorf("text is required")
	}

	m = &model.Msg{
		URNPath: r.URN,
		Text:    r.Text,
	}

	return m, nil
}

package resource

import (
	"fmt"
	"sort"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
)

// ChannelResource deliberately leaves out the shared secret, only the
// device itself may ever see it.
type ChannelResource struct {
	ID         int64      `json:"id"`
	UUID       string     `json:"uuid"`
	Address    string     `json:"address"`
	OrgID      int64      `json:"orgId,omitempty"`
	Claimed    bool       `json:"claimed"`
	DeviceUUID string     `json:"deviceUuid,omitempty"`
	AppVersion string     `json:"appVersion,omitempty"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

type ChannelListResource struct {
	Members []*ChannelResource `json:"members"`
}

func NewChannel(m *model.Channel) (out *ChannelResource) {
	out = &ChannelResource{
		ID:         m.ID,
		UUID:       m.UUID,
		Address:    m.Address,
		OrgID:      m.OrgID,
		Claimed:    m.Claimed(),
		DeviceUUID: m.Config.DeviceUUID,
		AppVersion: m.Config.AppVersion,
	}

	if !m.LastSeenAt.IsZero() {
		out.LastSeenAt = &time.Time{}
		*out.LastSeenAt = m.LastSeenAt.Round(time.Second)
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

func NewChannelList(m map[int64]model.Channel) (out *ChannelListResource) {
	out = &ChannelListResource{
		Members: make([]*ChannelResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewChannel(&elem))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}

type ClaimRequestResource struct {
	ClaimCode   string `json:"claimCode"`
	OrgID       int64  `json:"orgId"`
	PhoneNumber string `json:"phoneNumber"`
}

func ValidateClaimRequest(r *ClaimRequestResource) error {
	if r.ClaimCode == "" {
		return fmt.Errorf("claimCode is required")
	}
	if r.OrgID == 0 {
		return fmt.Errorf("orgId is required")
	}
	if r.PhoneNumber == "" {
		return fmt.Errorf("phoneNumber is required")
	}

	return nil
}

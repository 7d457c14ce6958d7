package model

import "time"

// ChannelConfig holds the device-managed part of a channel. It replaces the
// free-form config blob of earlier versions with a fixed set of fields that
// the relayer is allowed to update.
type ChannelConfig struct {
	FCMID      string `json:"fcm_id,omitempty"`
	DeviceUUID string `json:"device_uuid,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
}

// Channel is a model of the persistency layer
type Channel struct {
	ID        int64
	UUID      string
	Address   string
	Secret    string
	ClaimCode string
	OrgID     int64 // zero until the channel is claimed
	Config    ChannelConfig

	LastSeenAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Claimed reports whether the channel has been associated with an org.
func (c *Channel) Claimed() bool {
	return c.OrgID != 0 && c.Secret != ""
}

package model

import "time"

type MsgStatus string

const (
	MsgStatusQueued    MsgStatus = "Q"
	MsgStatusSent      MsgStatus = "S"
	MsgStatusDelivered MsgStatus = "D"
	MsgStatusErrored   MsgStatus = "E"
	MsgStatusFailed    MsgStatus = "F"
)

type MsgDirection string

const (
	MsgDirectionIn  MsgDirection = "I"
	MsgDirectionOut MsgDirection = "O"
)

// Msg is a message queued against a channel. The relayer only ever creates
// outbound rows here; inbound messages are owned by the routing service.
type Msg struct {
	ID        int64
	ChannelID int64
	Direction MsgDirection
	URNPath   string
	Text      string
	Status    MsgStatus
	QueuedOn  time.Time
	SentOn    time.Time // zero until the device confirms the send

	CreatedAt time.Time
	UpdatedAt time.Time
}

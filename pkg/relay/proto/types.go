package proto

type CommandType int

const (
	CommandTypeInvalid      CommandType = 0
	CommandTypeUnknown      CommandType = 1
	CommandTypeFCM          CommandType = 2
	CommandTypeStatus       CommandType = 3
	CommandTypeMsgErrored   CommandType = 4
	CommandTypeMsgFailed    CommandType = 5
	CommandTypeMsgSent      CommandType = 6
	CommandTypeMsgDelivered CommandType = 7
	CommandTypeIncomingMsg  CommandType = 8
	CommandTypeCall         CommandType = 9
	CommandTypeReset        CommandType = 10
	CommandTypeSendBatch    CommandType = 11
	CommandTypeAck          CommandType = 12
	CommandTypeClaim        CommandType = 13
	CommandTypeReg          CommandType = 14
)

func (cmdType CommandType) String() string {
	names := map[CommandType]string{
		CommandTypeUnknown:      "unknown",
		CommandTypeFCM:          "fcm",
		CommandTypeStatus:       "status",
		CommandTypeMsgErrored:   "mt_error",
		CommandTypeMsgFailed:    "mt_fail",
		CommandTypeMsgSent:      "mt_sent",
		CommandTypeMsgDelivered: "mt_dlvd",
		CommandTypeIncomingMsg:  "mo_sms",
		CommandTypeCall:         "call",
		CommandTypeReset:        "reset",
		CommandTypeSendBatch:    "send-batch",
		CommandTypeAck:          "ack",
		CommandTypeClaim:        "claim",
		CommandTypeReg:          "reg"}

	name, ok := names[cmdType]
	if !ok {
		return ""
	}

	return name
}

// Command is implemented by every protocol command, inbound and outbound.
type Command interface {
	CommandType() CommandType
}

// FCMCommand updates the channel's push token and device identity. Sent by
// the device on every sync and never acknowledged.
type FCMCommand struct {
	FCMID      string
	DeviceUUID string
	PairID     string
}

func (c FCMCommand) CommandType() CommandType { return CommandTypeFCM }

// StatusCommand is the device heartbeat carrying its diagnostic snapshot.
// Never acknowledged.
type StatusCommand struct {
	PowerSource string
	PowerStatus string
	PowerLevel  int
	NetworkType string
	Pending     []int64
	Retry       []int64
	AppVersion  string
	OrgID       int64
	PairID      string
}

func (c StatusCommand) CommandType() CommandType { return CommandTypeStatus }

// MsgStatusCommand reports a delivery state transition for a previously
// synced message. Kind is one of the four mt_* command types.
type MsgStatusCommand struct {
	Kind      CommandType
	MsgID     int64
	Timestamp int64 // milliseconds since epoch
	PairID    string
}

func (c MsgStatusCommand) CommandType() CommandType { return c.Kind }

// IncomingMsgCommand carries a new inbound message received by the device.
type IncomingMsgCommand struct {
	Phone     string
	Text      string
	Timestamp int64 // milliseconds since epoch
	PairID    string
}

func (c IncomingMsgCommand) CommandType() CommandType { return CommandTypeIncomingMsg }

// CallCommand reports a phone event observed by the device.
type CallCommand struct {
	Phone     string
	EventType string
	Timestamp int64 // milliseconds since epoch
	Duration  int
	PairID    string
}

func (c CallCommand) CommandType() CommandType { return CommandTypeCall }

// ResetCommand asks the server to release the channel, e.g. after a factory
// reset of the device.
type ResetCommand struct {
	PairID string
}

func (c ResetCommand) CommandType() CommandType { return CommandTypeReset }

// UnknownCommand is produced for keywords this server does not recognize.
type UnknownCommand struct {
	Keyword string
	PairID  string
}

func (c UnknownCommand) CommandType() CommandType { return CommandTypeUnknown }

// BatchDestination is one recipient of a SendBatchCommand.
type BatchDestination struct {
	Address string
	MsgID   int64
}

// SendBatchCommand instructs the device to send the same text to each
// destination. No batch ever mixes two different texts.
type SendBatchCommand struct {
	Destinations []BatchDestination
	Text         string
}

func (c SendBatchCommand) CommandType() CommandType { return CommandTypeSendBatch }

// AckCommand acknowledges a handled inbound command by its pairing ID.
type AckCommand struct {
	PairID string
	Extra  interface{}
}

func (c AckCommand) CommandType() CommandType { return CommandTypeAck }

// ClaimCommand tells the device its channel now belongs to another org.
type ClaimCommand struct {
	OrgID int64
}

func (c ClaimCommand) CommandType() CommandType { return CommandTypeClaim }

// RegCommand is the registration response carrying the channel credentials.
type RegCommand struct {
	ClaimCode string
	Secret    string
	RelayerID int64
}

func (c RegCommand) CommandType() CommandType { return CommandTypeReg }

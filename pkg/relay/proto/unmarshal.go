package proto

import (
	"encoding/json"
	"fmt"
)

func unmarshalCommandType(v interface{}) (CommandType, string, error) {
	cmdTypes := map[string]CommandType{
		"fcm":      CommandTypeFCM,
		"status":   CommandTypeStatus,
		"mt_error": CommandTypeMsgErrored,
		"mt_fail":  CommandTypeMsgFailed,
		"mt_sent":  CommandTypeMsgSent,
		"mt_dlvd":  CommandTypeMsgDelivered,
		"mo_sms":   CommandTypeIncomingMsg,
		"call":     CommandTypeCall,
		"reset":    CommandTypeReset}

	keyword, ok := v.(string)
	if !ok {
		return CommandTypeInvalid, "", fmt.Errorf("relay: invalid command keyword given")
	}

	cmdType, ok := cmdTypes[keyword]
	if !ok {
		// Unknown keywords are kept so the dispatcher can ack them away
		// instead of having the device retry forever.
		return CommandTypeUnknown, keyword, nil
	}

	return cmdType, keyword, nil
}

// UnmarshalSyncRequest parses the body of a sync call into its commands.
// Commands with keywords this server does not know come back as
// UnknownCommand, a malformed envelope is an error.
func UnmarshalSyncRequest(data []byte) ([]Command, error) {
	var envelope struct {
		Cmds []json.RawMessage `json:"cmds"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("relay: invalid sync request data: %s", err.Error())
	}

	cmds := make([]Command, 0, len(envelope.Cmds))
	for _, raw := range envelope.Cmds {
		cmd, err := UnmarshalCommand(raw)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	return cmds, nil
}

// UnmarshalCommand parses a single command object.
func UnmarshalCommand(data []byte) (Command, error) {
	var dict map[string]interface{}

	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("relay: invalid command data: %s", err.Error())
	}

	v, ok := dict["cmd"]
	if !ok {
		return nil, fmt.Errorf("relay: command does not contain a keyword")
	}

	cmdType, keyword, err := unmarshalCommandType(v)
	if err != nil {
		return nil, err
	}

	switch cmdType {
	case CommandTypeFCM:
		return unmarshalFCMCommand(dict)
	case CommandTypeStatus:
		return unmarshalStatusCommand(dict)
	case CommandTypeMsgErrored, CommandTypeMsgFailed,
		CommandTypeMsgSent, CommandTypeMsgDelivered:
		return unmarshalMsgStatusCommand(cmdType, dict)
	case CommandTypeIncomingMsg:
		return unmarshalIncomingMsgCommand(dict)
	case CommandTypeCall:
		return unmarshalCallCommand(dict)
	case CommandTypeReset:
		return ResetCommand{PairID: stringValue(dict, "p_id")}, nil
	}

	return UnknownCommand{
		Keyword: keyword,
		PairID:  stringValue(dict, "p_id"),
	}, nil
}

func unmarshalFCMCommand(dict map[string]interface{}) (Command, error) {
	fcmID, ok := dict["fcm_id"].(string)
	if !ok {
		return nil, fmt.Errorf("relay: fcm command contains invalid fcm_id type")
	}

	return FCMCommand{
		FCMID:      fcmID,
		DeviceUUID: stringValue(dict, "uuid"),
		PairID:     stringValue(dict, "p_id"),
	}, nil
}

func unmarshalStatusCommand(dict map[string]interface{}) (Command, error) {
	return StatusCommand{
		PowerSource: stringValue(dict, "p_src"),
		PowerStatus: stringValue(dict, "p_sts"),
		PowerLevel:  int(int64Value(dict, "p_lvl")),
		NetworkType: stringValue(dict, "net"),
		Pending:     int64SliceValue(dict, "pending"),
		Retry:       int64SliceValue(dict, "retry"),
		AppVersion:  stringValue(dict, "app_version"),
		OrgID:       int64Value(dict, "org_id"),
		PairID:      stringValue(dict, "p_id"),
	}, nil
}

func unmarshalMsgStatusCommand(cmdType CommandType, dict map[string]interface{}) (Command, error) {
	id, ok := dict["msg_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("relay: %s command contains invalid msg_id type", cmdType)
	}

	return MsgStatusCommand{
		Kind:      cmdType,
		MsgID:     int64(id),
		Timestamp: int64Value(dict, "ts"),
		PairID:    stringValue(dict, "p_id"),
	}, nil
}

func unmarshalIncomingMsgCommand(dict map[string]interface{}) (Command, error) {
	text, ok := dict["msg"].(string)
	if !ok {
		return nil, fmt.Errorf("relay: mo_sms command contains invalid msg type")
	}

	return IncomingMsgCommand{
		Phone:     stringValue(dict, "phone"),
		Text:      text,
		Timestamp: int64Value(dict, "ts"),
		PairID:    stringValue(dict, "p_id"),
	}, nil
}

func unmarshalCallCommand(dict map[string]interface{}) (Command, error) {
	eventType, ok := dict["type"].(string)
	if !ok {
		return nil, fmt.Errorf("relay: call command contains invalid type")
	}

	return CallCommand{
		Phone:     stringValue(dict, "phone"),
		EventType: eventType,
		Timestamp: int64Value(dict, "ts"),
		Duration:  int(int64Value(dict, "dur")),
		PairID:    stringValue(dict, "p_id"),
	}, nil
}

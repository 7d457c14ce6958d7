package proto

import (
	"encoding/json"
	"fmt"
)

func (c SendBatchCommand) Marshal() ([]byte, error) {
	dests := make([]map[string]interface{}, 0, len(c.Destinations))
	for _, d := range c.Destinations {
		dests = append(dests, map[string]interface{}{
			"address":    d.Address,
			"message-id": d.MsgID,
		})
	}

	dict := map[string]interface{}{
		"cmd":          CommandTypeSendBatch.String(),
		"destinations": dests,
		"text":         c.Text,
	}

	return json.Marshal(dict)
}

func (c AckCommand) Marshal() ([]byte, error) {
	dict := map[string]interface{}{
		"cmd":  CommandTypeAck.String(),
		"p_id": c.PairID,
	}
	if c.Extra != nil {
		dict["extra"] = c.Extra
	}

	return json.Marshal(dict)
}

func (c ClaimCommand) Marshal() ([]byte, error) {
	dict := map[string]interface{}{
		"cmd":    CommandTypeClaim.String(),
		"org_id": c.OrgID,
	}

	return json.Marshal(dict)
}

func (c RegCommand) Marshal() ([]byte, error) {
	dict := map[string]interface{}{
		"cmd":                CommandTypeReg.String(),
		"relayer_claim_code": c.ClaimCode,
		"relayer_secret":     c.Secret,
		"relayer_id":         c.RelayerID,
	}

	return json.Marshal(dict)
}

func MarshalCommand(v interface{}) ([]byte, error) {
	if cmd, ok := v.(SendBatchCommand); ok {
		return cmd.Marshal()
	}
	if cmd, ok := v.(AckCommand); ok {
		return cmd.Marshal()
	}
	if cmd, ok := v.(ClaimCommand); ok {
		return cmd.Marshal()
	}
	if cmd, ok := v.(RegCommand); ok {
		return cmd.Marshal()
	}
	return nil, fmt.Errorf("cannot marshal a non-outbound command")
}

// MarshalSyncResponse wraps outbound commands into the response envelope the
// device expects. A nil or empty command list still yields "cmds":[].
func MarshalSyncResponse(cmds []Command) ([]byte, error) {
	rawCmds := make([]json.RawMessage, 0, len(cmds))
	for _, cmd := range cmds {
		raw, err := MarshalCommand(cmd)
		if err != nil {
			return nil, err
		}
		rawCmds = append(rawCmds, raw)
	}

	envelope := map[string]interface{}{
		"cmds": rawCmds,
	}

	return json.Marshal(envelope)
}

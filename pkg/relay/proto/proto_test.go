package proto

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalSyncRequest(t *testing.T) {
	body := []byte(`{"cmds":[
		{"cmd":"fcm","fcm_id":"token-1","uuid":"device-1","p_id":"1"},
		{"cmd":"mt_sent","msg_id":55,"ts":1700000000000,"p_id":"2"},
		{"cmd":"mo_sms","phone":"+250788111111","msg":"hi","ts":1700000001000,"p_id":"3"},
		{"cmd":"call","phone":"+250788111111","type":"mo_call","ts":1700000002000,"dur":30},
		{"cmd":"status","p_src":"BAT","p_sts":"DIS","p_lvl":40,"net":"WIFI","pending":[5,6],"retry":[],"app_version":"2.0.0","org_id":7},
		{"cmd":"reset","p_id":"4"},
		{"cmd":"selfie","p_id":"5"}
	]}`)

	cmds, err := UnmarshalSyncRequest(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 7 {
		t.Fatalf("expected 7 commands, got %d", len(cmds))
	}

	fcm := cmds[0].(FCMCommand)
	if fcm.FCMID != "token-1" || fcm.DeviceUUID != "device-1" {
		t.Errorf("unexpected fcm command: %+v", fcm)
	}

	sent := cmds[1].(MsgStatusCommand)
	if sent.Kind != CommandTypeMsgSent || sent.MsgID != 55 || sent.Timestamp != 1700000000000 {
		t.Errorf("unexpected mt_sent command: %+v", sent)
	}

	sms := cmds[2].(IncomingMsgCommand)
	if sms.Phone != "+250788111111" || sms.Text != "hi" {
		t.Errorf("unexpected mo_sms command: %+v", sms)
	}

	call := cmds[3].(CallCommand)
	if call.EventType != "mo_call" || call.Duration != 30 {
		t.Errorf("unexpected call command: %+v", call)
	}

	status := cmds[4].(StatusCommand)
	if status.PowerLevel != 40 || len(status.Pending) != 2 || status.OrgID != 7 {
		t.Errorf("unexpected status command: %+v", status)
	}
	if status.AppVersion != "2.0.0" {
		t.Errorf("unexpected app version: %q", status.AppVersion)
	}

	if _, ok := cmds[5].(ResetCommand); !ok {
		t.Errorf("expected reset command, got %T", cmds[5])
	}

	unknown := cmds[6].(UnknownCommand)
	if unknown.Keyword != "selfie" || unknown.PairID != "5" {
		t.Errorf("unexpected unknown command: %+v", unknown)
	}
}

func TestUnmarshalSyncRequestMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"cmds":[{"no_cmd_key":true}]}`),
		[]byte(`{"cmds":[{"cmd":42}]}`),
		[]byte(`{"cmds":[{"cmd":"mt_sent","msg_id":"not-a-number"}]}`),
	}

	for i, body := range cases {
		if _, err := UnmarshalSyncRequest(body); err == nil {
			t.Errorf("case %d: expected error for %s", i, body)
		}
	}
}

func TestMarshalSendBatch(t *testing.T) {
	cmd := SendBatchCommand{
		Destinations: []BatchDestination{
			{Address: "+250788111111", MsgID: 1},
			{Address: "+250788222222", MsgID: 2},
		},
		Text: "hello",
	}

	data, err := cmd.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var dict map[string]interface{}
	if err := json.Unmarshal(data, &dict); err != nil {
		t.Fatal(err)
	}
	if dict["cmd"] != "send-batch" || dict["text"] != "hello" {
		t.Errorf("unexpected command: %v", dict)
	}

	dests := dict["destinations"].([]interface{})
	if len(dests) != 2 {
		t.Fatalf("expected 2 destinations, got %d", len(dests))
	}
	first := dests[0].(map[string]interface{})
	if first["address"] != "+250788111111" || first["message-id"] != float64(1) {
		t.Errorf("unexpected destination: %v", first)
	}
}

func TestMarshalSyncResponseEmpty(t *testing.T) {
	data, err := MarshalSyncResponse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"cmds":[]}` {
		t.Errorf("expected empty cmds list, got %s", data)
	}
}

func TestSyncErrorBody(t *testing.T) {
	data, err := NewStaleRequestError().(*SyncError).Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var dict map[string]interface{}
	if err := json.Unmarshal(data, &dict); err != nil {
		t.Fatal(err)
	}
	if dict["error_id"] != float64(3) || dict["error"] != "Old Request" {
		t.Errorf("unexpected error body: %v", dict)
	}
	if cmds, ok := dict["cmds"].([]interface{}); !ok || len(cmds) != 0 {
		t.Errorf("expected empty cmds in error body, got %v", dict["cmds"])
	}
}

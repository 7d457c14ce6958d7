package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/auth"
	"github.com/rapidpro/relayd/pkg/storage"
	"github.com/rapidpro/relayd/pkg/storage/memory"
)

type syncResponse struct {
	ErrorID int                      `json:"error_id"`
	Error   string                   `json:"error"`
	Cmds    []map[string]interface{} `json:"cmds"`
}

func newTestServer() (*echo.Echo, storage.Interface) {
	store := memory.NewStore()
	dispatcher := NewDispatcher(store, NewMessageService(store),
		NewCallEventService(store), NewIncidentService(store), "")
	syncer := NewSyncer(store, auth.NewAuthenticator(nil), dispatcher, NewTracker(store))
	registrar := NewRegistrar(store, NewNoopPushClient(), nil)

	e := echo.New()
	NewHandler(syncer, registrar).RegisterRoutes(e)

	return e, store
}

func doJSON(e *echo.Echo, method, target string, body []byte) (*httptest.ResponseRecorder, *syncResponse) {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	resp := &syncResponse{}
	json.Unmarshal(rec.Body.Bytes(), resp)

	return rec, resp
}

func syncTarget(channelID int64, ts int64, signature string) string {
	return fmt.Sprintf("/sync/%d?ts=%d&signature=%s", channelID, ts, url.QueryEscape(signature))
}

func TestHandleRegister(t *testing.T) {
	e, store := newTestServer()

	body := []byte(`{"cmds":[{"cmd":"fcm","fcm_id":"token-1","uuid":"device-1"},{"cmd":"status","p_src":"BAT"}]}`)
	rec, resp := doJSON(e, http.MethodPost, "/register", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(resp.Cmds) != 1 || resp.Cmds[0]["cmd"] != "reg" {
		t.Fatalf("expected one reg command, got %v", resp.Cmds)
	}
	if resp.Cmds[0]["relayer_secret"] == "" || resp.Cmds[0]["relayer_claim_code"] == "" {
		t.Errorf("expected credentials in reg command, got %v", resp.Cmds[0])
	}

	id := int64(resp.Cmds[0]["relayer_id"].(float64))
	if _, err := store.Channels().FindByID(id); err != nil {
		t.Errorf("expected channel %d to exist: %v", id, err)
	}
}

func TestHandleSyncFullTransaction(t *testing.T) {
	e, store := newTestServer()

	ch := &model.Channel{
		UUID:   "10000000-0000-0000-0000-000000000001",
		Secret: "sesame",
		OrgID:  7,
		Config: model.ChannelConfig{FCMID: "token-1", DeviceUUID: "device-1"},
	}
	if err := store.Channels().Create(ch); err != nil {
		t.Fatal(err)
	}

	queued := &model.Msg{ChannelID: ch.ID, URNPath: "+250788111111", Text: "hello"}
	if err := store.Msgs().Create(queued); err != nil {
		t.Fatal(err)
	}
	reported := &model.Msg{ChannelID: ch.ID, URNPath: "+250788222222", Text: "earlier"}
	if err := store.Msgs().Create(reported); err != nil {
		t.Fatal(err)
	}

	body := []byte(fmt.Sprintf(`{"cmds":[`+
		`{"cmd":"fcm","fcm_id":"token-1","uuid":"device-1"},`+
		`{"cmd":"mt_sent","msg_id":%d,"ts":1700000000000,"p_id":"1"},`+
		`{"cmd":"status","p_src":"BAT","p_sts":"DIS","p_lvl":50,"net":"WIFI","pending":[],"retry":[],"org_id":7}]}`,
		reported.ID))

	ts := time.Now().Unix()
	rec, resp := doJSON(e, http.MethodPost,
		syncTarget(ch.ID, ts, auth.SignatureFor(ch.Secret, ts, body)), body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// One send batch for the remaining queued msg, then the mt_sent ack.
	// The msg the device just reported as sent is no longer queued.
	if len(resp.Cmds) != 2 {
		t.Fatalf("expected 2 outgoing commands, got %v", resp.Cmds)
	}
	if resp.Cmds[0]["cmd"] != "send-batch" || resp.Cmds[0]["text"] != "hello" {
		t.Errorf("unexpected first command: %v", resp.Cmds[0])
	}
	if resp.Cmds[1]["cmd"] != "ack" || resp.Cmds[1]["p_id"] != "1" {
		t.Errorf("unexpected second command: %v", resp.Cmds[1])
	}

	got, _ := store.Msgs().FindByID(reported.ID)
	if got.Status != model.MsgStatusSent {
		t.Errorf("expected reported msg sent, got %s", got.Status)
	}

	// Authenticated sync refreshes last seen
	got2, _ := store.Channels().FindByID(ch.ID)
	if got2.LastSeenAt.IsZero() {
		t.Error("expected last seen to be set")
	}
}

func TestHandleSyncBadSignature(t *testing.T) {
	e, store := newTestServer()

	ch := &model.Channel{UUID: "u", Secret: "sesame", OrgID: 7}
	store.Channels().Create(ch)

	body := []byte(`{"cmds":[{"cmd":"fcm","fcm_id":"x"}]}`)
	ts := time.Now().Unix()
	rec, resp := doJSON(e, http.MethodPost,
		syncTarget(ch.ID, ts, auth.SignatureFor("wrong-secret", ts, body)), body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.ErrorID != 1 {
		t.Errorf("expected error_id 1, got %d", resp.ErrorID)
	}
	if resp.Cmds == nil || len(resp.Cmds) != 0 {
		t.Errorf("expected empty cmds in error body, got %v", resp.Cmds)
	}
}

func TestHandleSyncUnclaimedChannel(t *testing.T) {
	e, store := newTestServer()

	ch := &model.Channel{UUID: "u", ClaimCode: "ABCD2345"}
	store.Channels().Create(ch)

	body := []byte(`{"cmds":[{"cmd":"fcm","fcm_id":"x"}]}`)
	ts := time.Now().Unix()
	rec, resp := doJSON(e, http.MethodPost, syncTarget(ch.ID, ts, "sig"), body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.ErrorID != 4 {
		t.Errorf("expected error_id 4, got %d", resp.ErrorID)
	}
}

func TestHandleSyncStaleTimestamp(t *testing.T) {
	e, store := newTestServer()

	ch := &model.Channel{UUID: "u", Secret: "sesame", OrgID: 7}
	store.Channels().Create(ch)

	body := []byte(`{"cmds":[{"cmd":"fcm","fcm_id":"x"}]}`)
	ts := time.Now().Add(-time.Hour).Unix()
	rec, resp := doJSON(e, http.MethodPost,
		syncTarget(ch.ID, ts, auth.SignatureFor(ch.Secret, ts, body)), body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.ErrorID != 3 {
		t.Errorf("expected error_id 3, got %d", resp.ErrorID)
	}
}

func TestHandleSyncMissingFCMCommand(t *testing.T) {
	e, store := newTestServer()

	ch := &model.Channel{UUID: "u", Secret: "sesame", OrgID: 7}
	store.Channels().Create(ch)

	body := []byte(`{"cmds":[{"cmd":"status","p_src":"BAT"}]}`)
	ts := time.Now().Unix()
	rec, resp := doJSON(e, http.MethodPost,
		syncTarget(ch.ID, ts, auth.SignatureFor(ch.Secret, ts, body)), body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.ErrorID != 4 || resp.Error != "Missing FCM command" {
		t.Errorf("unexpected error response: %+v", resp)
	}
}

func TestHandleSyncUnknownChannel(t *testing.T) {
	e, _ := newTestServer()

	body := []byte(`{"cmds":[{"cmd":"fcm","fcm_id":"x"}]}`)
	rec, resp := doJSON(e, http.MethodPost, syncTarget(999, time.Now().Unix(), "sig"), body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.ErrorID != 4 {
		t.Errorf("expected error_id 4, got %d", resp.ErrorID)
	}
}

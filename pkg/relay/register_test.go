package relay

import (
	"testing"

	"github.com/rapidpro/relayd/pkg/relay/proto"
	"github.com/rapidpro/relayd/pkg/storage/memory"
)

func TestRegisterNewDevice(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistrar(store, NewNoopPushClient(), nil)

	reg, err := r.Register([]proto.Command{
		proto.FCMCommand{FCMID: "token-1", DeviceUUID: "device-1"},
		proto.StatusCommand{PowerSource: "BAT"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(reg.ClaimCode) != 8 {
		t.Errorf("expected 8 char claim code, got %q", reg.ClaimCode)
	}
	if len(reg.Secret) != 64 {
		t.Errorf("expected 64 char secret, got %d chars", len(reg.Secret))
	}
	if reg.RelayerID <= 0 {
		t.Errorf("expected positive relayer id, got %d", reg.RelayerID)
	}

	ch, err := store.Channels().FindByID(reg.RelayerID)
	if err != nil {
		t.Fatal(err)
	}
	if ch.Claimed() {
		t.Error("fresh channel must be unclaimed")
	}
	if ch.Config.FCMID != "token-1" || ch.Config.DeviceUUID != "device-1" {
		t.Errorf("unexpected channel config: %+v", ch.Config)
	}
	if ch.UUID == "" {
		t.Error("expected channel uuid to be set")
	}
}

func TestRegisterIsIdempotentPerDevice(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistrar(store, NewNoopPushClient(), nil)

	first, err := r.Register([]proto.Command{
		proto.FCMCommand{FCMID: "token-1", DeviceUUID: "device-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Same device comes back with a refreshed push token
	second, err := r.Register([]proto.Command{
		proto.FCMCommand{FCMID: "token-2", DeviceUUID: "device-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if second.RelayerID != first.RelayerID {
		t.Errorf("expected same channel, got %d and %d", first.RelayerID, second.RelayerID)
	}
	if second.Secret != first.Secret || second.ClaimCode != first.ClaimCode {
		t.Error("expected unchanged credentials on re-registration")
	}

	ch, _ := store.Channels().FindByID(first.RelayerID)
	if ch.Config.FCMID != "token-2" {
		t.Errorf("expected refreshed push token, got %q", ch.Config.FCMID)
	}
}

func TestRegisterLegacyGCMSentinel(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistrar(store, NewNoopPushClient(), nil)

	reg, err := r.Register([]proto.Command{
		proto.UnknownCommand{Keyword: "gcm"},
		proto.StatusCommand{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if reg.ClaimCode != "*********" {
		t.Errorf("expected masked claim code, got %q", reg.ClaimCode)
	}
	if len(reg.Secret) != 64 || reg.Secret[0] != '0' {
		t.Errorf("expected all-zero secret, got %q", reg.Secret)
	}
	if reg.RelayerID != -1 {
		t.Errorf("expected relayer id -1, got %d", reg.RelayerID)
	}

	// No channel row is created for the sentinel
	channels, _ := store.Channels().FetchAll()
	if len(channels) != 0 {
		t.Errorf("expected no channels, got %d", len(channels))
	}
}

func TestRegisterMissingFCM(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistrar(store, NewNoopPushClient(), nil)

	_, err := r.Register([]proto.Command{proto.StatusCommand{}})
	if !proto.IsSyncError(err) {
		t.Fatalf("expected sync error, got %v", err)
	}
	if code := err.(*proto.SyncError).Code; code != proto.ErrCodeInvalidRequest {
		t.Errorf("expected error code %d, got %d", proto.ErrCodeInvalidRequest, code)
	}
}

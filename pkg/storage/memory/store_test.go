package memory

import (
	"testing"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

func TestChannelClaimLifecycle(t *testing.T) {
	s := NewStore()

	ch := &model.Channel{
		UUID:      "u-1",
		Secret:    "sesame",
		ClaimCode: "ABCD2345",
		Config:    model.ChannelConfig{DeviceUUID: "device-1"},
	}
	if err := s.Channels().Create(ch); err != nil {
		t.Fatal(err)
	}
	if ch.ID == 0 {
		t.Fatal("expected assigned id")
	}

	found, err := s.Channels().FindByClaimCode("ABCD2345")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != ch.ID {
		t.Errorf("expected channel %d, got %d", ch.ID, found.ID)
	}

	if err := s.Channels().Claim(ch.ID, 7, "+250788111111"); err != nil {
		t.Fatal(err)
	}

	claimed, _ := s.Channels().FindByID(ch.ID)
	if !claimed.Claimed() || claimed.OrgID != 7 || claimed.Address != "+250788111111" {
		t.Errorf("unexpected claimed channel: %+v", claimed)
	}
	if claimed.ClaimCode != "" {
		t.Error("claim code must be cleared on claim")
	}
	if _, err := s.Channels().FindByClaimCode("ABCD2345"); err != storage.ErrNotFound {
		t.Errorf("expected spent claim code to be gone, got %v", err)
	}

	if err := s.Channels().Release(ch.ID); err != nil {
		t.Fatal(err)
	}
	released, _ := s.Channels().FindByID(ch.ID)
	if released.Claimed() || released.Secret != "" {
		t.Errorf("unexpected released channel: %+v", released)
	}
}

func TestChannelFindByDeviceUUID(t *testing.T) {
	s := NewStore()

	ch := &model.Channel{UUID: "u-1", Config: model.ChannelConfig{DeviceUUID: "device-1"}}
	if err := s.Channels().Create(ch); err != nil {
		t.Fatal(err)
	}

	found, err := s.Channels().FindByDeviceUUID("device-1")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != ch.ID {
		t.Errorf("expected channel %d, got %d", ch.ID, found.ID)
	}

	if _, err := s.Channels().FindByDeviceUUID("device-2"); err != storage.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMsgFetchQueuedOrderAndFilter(t *testing.T) {
	s := NewStore()

	older := &model.Msg{ChannelID: 1, URNPath: "+1", Text: "a", QueuedOn: time.Now().Add(-time.Hour)}
	newer := &model.Msg{ChannelID: 1, URNPath: "+2", Text: "b"}
	inbound := &model.Msg{ChannelID: 1, Direction: model.MsgDirectionIn, URNPath: "+3", Text: "c"}
	otherChannel := &model.Msg{ChannelID: 2, URNPath: "+4", Text: "d"}

	for _, m := range []*model.Msg{newer, older, inbound, otherChannel} {
		if err := s.Msgs().Create(m); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Msgs().UpdateStatus(newer.ID, model.MsgStatusSent, time.Now()); err != nil {
		t.Fatal(err)
	}

	queued, err := s.Msgs().FetchQueued(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 1 || queued[0].ID != older.ID {
		t.Errorf("expected only the older outbound msg, got %+v", queued)
	}
}

func TestIncidentOpenClose(t *testing.T) {
	s := NewStore()
	now := time.Now().Round(time.Second).UTC()

	incident := &model.Incident{ChannelID: 1, IncidentType: model.IncidentTypeOutdatedApp, OpenedAt: now}
	if err := s.Incidents().Create(incident); err != nil {
		t.Fatal(err)
	}

	open, err := s.Incidents().FindOpen(1, model.IncidentTypeOutdatedApp)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Incidents().Close(open.ID, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Incidents().FindOpen(1, model.IncidentTypeOutdatedApp); err != storage.ErrNotFound {
		t.Errorf("expected no open incident, got %v", err)
	}
}

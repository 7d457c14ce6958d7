package relay

import (
	"testing"
	"time"

	"github.com/rapidpro/relayd/pkg/relay/proto"
)

func TestTrackerOutgoingOrderAndCount(t *testing.T) {
	d, store := newTestDispatcher("")
	ch := newTestChannel(t, store)
	queueMsg(t, store, ch.ID, "hello")
	queueMsg(t, store, ch.ID, "hello")

	res, err := d.Dispatch(ch, []proto.Command{
		proto.FCMCommand{FCMID: "token-1"},
		proto.IncomingMsgCommand{Phone: "+250788222222", Text: "a", PairID: "1"},
		proto.StatusCommand{OrgID: 99}, // mismatch forces a claim command
	}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	cmds, err := NewTracker(store).Outgoing(ch, res)
	if err != nil {
		t.Fatal(err)
	}

	// claim first, then the send batch, acks last
	if len(cmds) != 3 {
		t.Fatalf("expected 3 outgoing commands, got %d", len(cmds))
	}
	if _, ok := cmds[0].(proto.ClaimCommand); !ok {
		t.Errorf("expected claim first, got %T", cmds[0])
	}
	if _, ok := cmds[1].(proto.SendBatchCommand); !ok {
		t.Errorf("expected send batch second, got %T", cmds[1])
	}
	if _, ok := cmds[2].(proto.AckCommand); !ok {
		t.Errorf("expected ack last, got %T", cmds[2])
	}

	// The persisted count excludes acks
	event, err := store.SyncEvents().FindByID(res.SyncEvent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if event.OutgoingCount != 2 {
		t.Errorf("expected outgoing count 2, got %d", event.OutgoingCount)
	}
}

func TestTrackerExcludesDeviceReportedMsgs(t *testing.T) {
	d, store := newTestDispatcher("")
	ch := newTestChannel(t, store)
	m1 := queueMsg(t, store, ch.ID, "a")
	m2 := queueMsg(t, store, ch.ID, "b")
	m3 := queueMsg(t, store, ch.ID, "c")

	res, err := d.Dispatch(ch, []proto.Command{
		proto.StatusCommand{OrgID: ch.OrgID, Pending: []int64{m1.ID}, Retry: []int64{m3.ID}},
	}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	cmds, err := NewTracker(store).Outgoing(ch, res)
	if err != nil {
		t.Fatal(err)
	}

	if len(cmds) != 1 {
		t.Fatalf("expected 1 send batch, got %d commands", len(cmds))
	}
	batch := cmds[0].(proto.SendBatchCommand)
	if len(batch.Destinations) != 1 || batch.Destinations[0].MsgID != m2.ID {
		t.Errorf("expected only msg %d, got %+v", m2.ID, batch.Destinations)
	}
}

func TestTrackerReleasedChannelSendsNothing(t *testing.T) {
	d, store := newTestDispatcher("")
	ch := newTestChannel(t, store)
	queueMsg(t, store, ch.ID, "a")

	res, err := d.Dispatch(ch, []proto.Command{
		proto.ResetCommand{PairID: "1"},
	}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	cmds, err := NewTracker(store).Outgoing(ch, res)
	if err != nil {
		t.Fatal(err)
	}

	// Only the reset ack, no send batches for a channel on its way out
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(proto.AckCommand); !ok {
		t.Errorf("expected ack, got %T", cmds[0])
	}
}

func TestTrackerNoSyncEventNoCountUpdate(t *testing.T) {
	_, store := newTestDispatcher("")
	ch := newTestChannel(t, store)
	queueMsg(t, store, ch.ID, "a")

	res := &DispatchResult{Acks: []proto.Command{}, Extras: []proto.Command{}}
	cmds, err := NewTracker(store).Outgoing(ch, res)
	if err != nil {
		t.Fatal(err)
	}

	if len(cmds) != 1 {
		t.Fatalf("expected 1 send batch, got %d", len(cmds))
	}
	if _, ok := cmds[0].(proto.SendBatchCommand); !ok {
		t.Errorf("expected send batch, got %T", cmds[0])
	}
}

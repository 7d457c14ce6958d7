package relay

import (
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/proto"
	"github.com/rapidpro/relayd/pkg/storage"
)

// Tracker assembles the outgoing command list for one sync transaction and
// records how many commands, acks excluded, went out on the sync event.
type Tracker struct {
	store storage.Interface
}

func NewTracker(store storage.Interface) *Tracker {
	return &Tracker{store: store}
}

// Outgoing returns claim commands first, then encoded send batches, then
// acks. Messages the device already reported as pending or retrying are not
// sent again.
func (t *Tracker) Outgoing(ch *model.Channel, res *DispatchResult) ([]proto.Command, error) {
	cmds := make([]proto.Command, 0, len(res.Extras)+len(res.Acks))
	cmds = append(cmds, res.Extras...)

	if !res.Released {
		queued, err := t.store.Msgs().FetchQueued(ch.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch queued msgs")
		}

		cmds = append(cmds, EncodeMsgBatch(excludeMsgs(queued, res.Pending, res.Retry))...)
	}

	outgoingCount := len(cmds)
	cmds = append(cmds, res.Acks...)

	if res.SyncEvent != nil {
		if err := t.store.SyncEvents().UpdateOutgoingCount(res.SyncEvent.ID, outgoingCount); err != nil {
			return nil, errors.Wrap(err, "failed to update sync event outgoing count")
		}
		res.SyncEvent.OutgoingCount = outgoingCount
	}

	return cmds, nil
}

func excludeMsgs(msgs []model.Msg, idLists ...[]int64) []model.Msg {
	exclude := make(map[int64]struct{})
	for _, ids := range idLists {
		for _, id := range ids {
			exclude[id] = struct{}{}
		}
	}

	kept := make([]model.Msg, 0, len(msgs))
	for _, m := range msgs {
		if _, skip := exclude[m.ID]; !skip {
			kept = append(kept, m)
		}
	}

	return kept
}

package relay

import (
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/proto"
)

// EncodeMsgBatch converts queued outbound messages, oldest first, into the
// smallest ordered list of send-batch commands. Consecutive messages sharing
// the same text collapse into one command with multiple destinations, the
// order of first appearance is preserved.
func EncodeMsgBatch(msgs []model.Msg) []proto.Command {
	cmds := make([]proto.Command, 0)

	var text string
	var dests []proto.BatchDestination

	for _, m := range msgs {
		if m.Text != text && len(dests) > 0 {
			cmds = append(cmds, proto.SendBatchCommand{
				Destinations: dests,
				Text:         text,
			})
			dests = nil
		}

		text = m.Text
		dests = append(dests, proto.BatchDestination{
			Address: m.URNPath,
			MsgID:   m.ID,
		})
	}

	if len(dests) > 0 {
		cmds = append(cmds, proto.SendBatchCommand{
			Destinations: dests,
			Text:         text,
		})
	}

	return cmds
}

package relay

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/relay/auth"
	"github.com/rapidpro/relayd/pkg/relay/proto"
	"github.com/rapidpro/relayd/pkg/storage"
)

// Syncer runs one complete sync transaction: authenticate, dispatch the
// inbound commands, assemble the outgoing ones.
type Syncer struct {
	store         storage.Interface
	authenticator *auth.Authenticator
	dispatcher    *Dispatcher
	tracker       *Tracker
}

func NewSyncer(store storage.Interface, authenticator *auth.Authenticator, dispatcher *Dispatcher, tracker *Tracker) *Syncer {
	return &Syncer{
		store:         store,
		authenticator: authenticator,
		dispatcher:    dispatcher,
		tracker:       tracker,
	}
}

// Sync handles one sync call. Validation failures come back as
// *proto.SyncError, anything else is a server-side fault.
func (s *Syncer) Sync(channelID, ts int64, signature string, body []byte, now time.Time) ([]proto.Command, error) {
	ch, err := s.store.Channels().FindByID(channelID)
	if err == storage.ErrNotFound {
		return nil, proto.NewSyncError(proto.ErrCodeInvalidRequest, "Can not sync unknown channel")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find channel")
	}

	if err := s.authenticator.Authenticate(ch, ts, signature, body, now); err != nil {
		return nil, err
	}

	if err := TouchLastSeen(s.store, ch, now); err != nil {
		return nil, err
	}

	cmds, err := proto.UnmarshalSyncRequest(body)
	if err != nil {
		return nil, proto.NewSyncError(proto.ErrCodeInvalidRequest, "Invalid request body")
	}

	if len(cmds) == 0 || cmds[0].CommandType() != proto.CommandTypeFCM {
		return nil, proto.NewSyncError(proto.ErrCodeInvalidRequest, "Missing FCM command")
	}

	res, err := s.dispatcher.Dispatch(ch, cmds, now)
	if err != nil {
		return nil, err
	}

	return s.tracker.Outgoing(ch, res)
}

package relay

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/proto"
	"github.com/rapidpro/relayd/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Dispatcher applies the side effects of inbound sync commands. It keeps no
// state between calls, everything request-scoped lives inside Dispatch.
type Dispatcher struct {
	store           storage.Interface
	msgService      MessageService
	callService     CallEventService
	incidentService IncidentService
	relayerVersion  string
}

func NewDispatcher(store storage.Interface, msgService MessageService, callService CallEventService, incidentService IncidentService, relayerVersion string) *Dispatcher {
	return &Dispatcher{
		store:           store,
		msgService:      msgService,
		callService:     callService,
		incidentService: incidentService,
		relayerVersion:  relayerVersion,
	}
}

// DispatchResult carries what one sync call produced: acks for handled
// commands, extra outbound commands such as claim, the sync event created
// from the status heartbeat, and the message IDs the device itself reported
// as still pending or retrying.
type DispatchResult struct {
	Acks      []proto.Command
	Extras    []proto.Command
	SyncEvent *model.SyncEvent
	Pending   []int64
	Retry     []int64
	Released  bool
}

type callKey struct {
	ts        int64
	eventType string
	phone     string
}

// Dispatch processes the commands strictly in submitted order. Commands that
// carry a message ID short-circuit keyword dispatch, matching the device's
// expectation that a status report is applied even when its keyword is from
// a newer app build.
func (d *Dispatcher) Dispatch(ch *model.Channel, cmds []proto.Command, now time.Time) (*DispatchResult, error) {
	res := &DispatchResult{
		Acks:   make([]proto.Command, 0),
		Extras: make([]proto.Command, 0),
	}

	uniqueCalls := make(map[callKey]struct{})
	incomingCount := incomingCommandCount(cmds)

	for _, cmd := range cmds {
		handled := false
		pairID := ""
		var extra interface{}

		switch c := cmd.(type) {
		case proto.MsgStatusCommand:
			pairID = c.PairID
			h, err := d.applyMsgStatus(c, now)
			if err != nil {
				return nil, err
			}
			handled = h

		case proto.IncomingMsgCommand:
			pairID = c.PairID
			msgID, err := d.msgService.CreateIncoming(ch, c.Phone, c.Text, timestampOrNow(c.Timestamp, now))
			if err != nil && errors.Cause(err) == ErrInvalidURN {
				// Handled but discarded, acking anyway stops the device
				// from resending a message we will never accept.
				log.WithFields(log.Fields{
					"channel_id": ch.ID,
					"phone":      c.Phone,
				}).Warn("Discarded incoming msg with invalid URN")
			} else if err != nil {
				return nil, err
			} else {
				extra = map[string]interface{}{"msg_id": msgID}
			}
			handled = true

		case proto.CallCommand:
			pairID = c.PairID
			if c.Phone == "" {
				// Anomalous events with an unknown number are dropped
				handled = true
				break
			}

			key := callKey{ts: c.Timestamp, eventType: c.EventType, phone: c.Phone}
			if _, dup := uniqueCalls[key]; !dup {
				uniqueCalls[key] = struct{}{}
				err := d.callService.Create(ch, c.Phone, c.EventType, timestampOrNow(c.Timestamp, now), c.Duration)
				if err != nil && errors.Cause(err) == ErrInvalidURN {
					log.WithFields(log.Fields{
						"channel_id": ch.ID,
						"phone":      c.Phone,
					}).Warn("Discarded call event with invalid URN")
				} else if err != nil {
					return nil, err
				}
			}
			handled = true

		case proto.FCMCommand:
			if err := d.applyFCM(ch, c); err != nil {
				return nil, err
			}

		case proto.StatusCommand:
			if err := d.applyStatus(ch, c, incomingCount, now, res); err != nil {
				return nil, err
			}

		case proto.ResetCommand:
			pairID = c.PairID
			if err := d.store.Channels().Release(ch.ID); err != nil {
				return nil, errors.Wrap(err, "failed to release channel")
			}
			res.Released = true
			handled = true

		case proto.UnknownCommand:
			pairID = c.PairID
			log.WithFields(log.Fields{
				"channel_id": ch.ID,
				"keyword":    c.Keyword,
			}).Warn("Received unrecognized command")
			handled = true
		}

		if handled && pairID != "" {
			res.Acks = append(res.Acks, proto.AckCommand{PairID: pairID, Extra: extra})
		}
	}

	return res, nil
}

// applyMsgStatus resolves the referenced message and applies the transition.
// Returns whether the command counts as handled.
func (d *Dispatcher) applyMsgStatus(c proto.MsgStatusCommand, now time.Time) (bool, error) {
	msgID := c.MsgID
	if msgID < 0 {
		// Older app builds overflow IDs through a signed 32-bit int
		msgID += 1 << 32
	}

	m, err := d.store.Msgs().FindByID(msgID)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to find msg for status command")
	}

	// A report against an inbound message is acknowledged without touching it
	if m.Direction != model.MsgDirectionOut {
		return true, nil
	}

	ts := timestampOrNow(c.Timestamp, now)

	var status model.MsgStatus
	var sentOn time.Time
	switch c.Kind {
	case proto.CommandTypeMsgErrored:
		status = model.MsgStatusErrored
	case proto.CommandTypeMsgFailed:
		status = model.MsgStatusFailed
	case proto.CommandTypeMsgSent:
		status = model.MsgStatusSent
		sentOn = ts
	case proto.CommandTypeMsgDelivered:
		status = model.MsgStatusDelivered
		if m.SentOn.IsZero() {
			sentOn = ts
		}
	default:
		return false, fmt.Errorf("relay: unexpected msg status command kind: %s", c.Kind)
	}

	if err := d.store.Msgs().UpdateStatus(msgID, status, sentOn); err != nil {
		return false, errors.Wrap(err, "failed to update msg status")
	}

	return true, nil
}

func (d *Dispatcher) applyFCM(ch *model.Channel, c proto.FCMCommand) error {
	cfg := ch.Config
	cfg.FCMID = c.FCMID
	if c.DeviceUUID != "" {
		cfg.DeviceUUID = c.DeviceUUID
	}

	if cfg == ch.Config {
		return nil
	}

	if err := d.store.Channels().UpdateConfig(ch.ID, cfg); err != nil {
		return errors.Wrap(err, "failed to update channel config")
	}
	ch.Config = cfg

	return nil
}

func (d *Dispatcher) applyStatus(ch *model.Channel, c proto.StatusCommand, incomingCount int, now time.Time, res *DispatchResult) error {
	event := &model.SyncEvent{
		ChannelID:     ch.ID,
		PowerSource:   c.PowerSource,
		PowerStatus:   c.PowerStatus,
		PowerLevel:    c.PowerLevel,
		NetworkType:   c.NetworkType,
		PendingCount:  len(c.Pending),
		RetryCount:    len(c.Retry),
		IncomingCount: incomingCount,
	}
	if err := d.store.SyncEvents().Create(event); err != nil {
		return errors.Wrap(err, "failed to create sync event")
	}

	res.SyncEvent = event
	res.Pending = c.Pending
	res.Retry = c.Retry

	// The device reports which org it believes it belongs to. A mismatch
	// means the channel was reclaimed and the device must switch over.
	if c.OrgID != ch.OrgID {
		res.Extras = append(res.Extras, proto.ClaimCommand{OrgID: ch.OrgID})
	}

	if c.AppVersion != "" && c.AppVersion != ch.Config.AppVersion {
		cfg := ch.Config
		cfg.AppVersion = c.AppVersion
		if err := d.store.Channels().UpdateConfig(ch.ID, cfg); err != nil {
			return errors.Wrap(err, "failed to update channel config")
		}
		ch.Config = cfg
	}

	if d.relayerVersion != "" && c.AppVersion != "" {
		var err error
		if c.AppVersion != d.relayerVersion {
			err = d.incidentService.EnsureOpen(ch.ID, model.IncidentTypeOutdatedApp, now)
		} else {
			err = d.incidentService.EnsureClosed(ch.ID, model.IncidentTypeOutdatedApp, now)
		}
		if err != nil {
			return errors.Wrap(err, "failed to update outdated app incident")
		}
	}

	return nil
}

// incomingCommandCount counts the commands that represent device-reported
// traffic, the ever-present fcm and status commands are bookkeeping.
func incomingCommandCount(cmds []proto.Command) int {
	n := 0
	for _, cmd := range cmds {
		switch cmd.CommandType() {
		case proto.CommandTypeFCM, proto.CommandTypeStatus:
		default:
			n++
		}
	}
	return n
}

func timestampOrNow(millis int64, now time.Time) time.Time {
	if millis == 0 {
		return now
	}
	return time.UnixMilli(millis).UTC()
}

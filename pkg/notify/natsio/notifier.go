package natsio

import (
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
)

// Notifier publishes relayer lifecycle events to NATS so the routing
// service and operator tooling can react without polling the database.
type Notifier struct {
	cfg *Config
	nc  *nats.Conn
}

func New(cfg *Config) (*Notifier, error) {
	nc, err := nats.Connect(cfg.url)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		cfg: cfg,
		nc:  nc,
	}, nil
}

// NewWithConn wraps an existing connection, the caller keeps ownership.
func NewWithConn(cfg *Config, nc *nats.Conn) *Notifier {
	return &Notifier{
		cfg: cfg,
		nc:  nc,
	}
}

func (n *Notifier) Conn() *nats.Conn {
	return n.nc
}

func (n *Notifier) Close() {
	n.nc.Close()
}

type channelEvent struct {
	ChannelID int64  `json:"channel_id"`
	UUID      string `json:"uuid"`
	OrgID     int64  `json:"org_id,omitempty"`
}

type msgEvent struct {
	MsgID      int64     `json:"msg_id"`
	ChannelID  int64     `json:"channel_id"`
	Phone      string    `json:"phone"`
	Text       string    `json:"text"`
	ReceivedOn time.Time `json:"received_on"`
}

func (n *Notifier) ChannelRegistered(ch *model.Channel) error {
	return n.publish("channel.registered", channelEvent{
		ChannelID: ch.ID,
		UUID:      ch.UUID,
	})
}

func (n *Notifier) ChannelReleased(ch *model.Channel) error {
	return n.publish("channel.released", channelEvent{
		ChannelID: ch.ID,
		UUID:      ch.UUID,
		OrgID:     ch.OrgID,
	})
}

func (n *Notifier) MsgReceived(m *model.Msg) error {
	return n.publish("msg.received", msgEvent{
		MsgID:      m.ID,
		ChannelID:  m.ChannelID,
		Phone:      m.URNPath,
		Text:       m.Text,
		ReceivedOn: m.QueuedOn,
	})
}

// RequestSync asks whichever relay server instance holds the channel to
// push-notify the device. Request/reply so the caller learns whether a
// server picked it up.
func (n *Notifier) RequestSync(deviceUUID string) error {
	subj := fmt.Sprintf("%s.notify.%s", n.cfg.baseSubject, deviceUUID)
	if _, err := n.nc.Request(subj, nil, n.cfg.defaultTimeout); err != nil {
		return errors.Wrap(err, "failed to request device sync")
	}

	return nil
}

// SubscribeSyncRequests answers RequestSync calls. The handler receives the
// device UUID and triggers the actual push.
func (n *Notifier) SubscribeSyncRequests(handler func(deviceUUID string) error) (*nats.Subscription, error) {
	subj := fmt.Sprintf("%s.notify.*", n.cfg.baseSubject)
	return n.nc.Subscribe(subj, func(msg *nats.Msg) {
		deviceUUID := msg.Subject[len(subj)-1:]
		if err := handler(deviceUUID); err != nil {
			msg.Respond([]byte(`{"status":"error"}`))
			return
		}
		msg.Respond([]byte(`{"status":"ok"}`))
	})
}

func (n *Notifier) publish(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	subj := fmt.Sprintf("%s.%s", n.cfg.baseSubject, event)
	if err := n.nc.Publish(subj, data); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

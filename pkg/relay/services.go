package relay

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

// ErrInvalidURN is returned by MessageService when the reported phone number
// cannot become a valid URN. The dispatcher treats it as handled-but-discarded
// so the device does not resend the command forever.
var ErrInvalidURN = errors.New("relay: invalid URN")

// MessageService creates inbound messages reported by devices.
type MessageService interface {
	CreateIncoming(ch *model.Channel, phone, text string, receivedOn time.Time) (int64, error)
}

// CallEventService records phone events reported by devices.
type CallEventService interface {
	Create(ch *model.Channel, phone, eventType string, occurredOn time.Time, duration int) error
}

// IncidentService maintains operator-visible incidents per channel.
type IncidentService interface {
	EnsureOpen(channelID int64, incidentType string, now time.Time) error
	EnsureClosed(channelID int64, incidentType string, now time.Time) error
}

// PushClient talks to the push-notification provider. Token validation runs
// during registration, Notify nudges the device to start a sync. Neither is
// ever called on the sync path itself.
type PushClient interface {
	ValidateToken(token string) error
	Notify(token string) error
}

var phoneRe = regexp.MustCompile(`^\+?[0-9]{3,16}$`)

type messageService struct {
	store storage.Interface
}

func NewMessageService(store storage.Interface) MessageService {
	return &messageService{store: store}
}

func (s *messageService) CreateIncoming(ch *model.Channel, phone, text string, receivedOn time.Time) (int64, error) {
	if !phoneRe.MatchString(phone) {
		return 0, errors.Wrap(ErrInvalidURN, fmt.Sprintf("phone: %q", phone))
	}

	m := &model.Msg{
		ChannelID: ch.ID,
		Direction: model.MsgDirectionIn,
		URNPath:   phone,
		Text:      text,
		Status:    model.MsgStatusQueued,
		QueuedOn:  receivedOn,
	}
	if err := s.store.Msgs().Create(m); err != nil {
		return 0, errors.Wrap(err, "failed to create incoming msg")
	}

	return m.ID, nil
}

type callEventService struct {
	store storage.Interface
}

func NewCallEventService(store storage.Interface) CallEventService {
	return &callEventService{store: store}
}

func (s *callEventService) Create(ch *model.Channel, phone, eventType string, occurredOn time.Time, duration int) error {
	if !phoneRe.MatchString(phone) {
		return errors.Wrap(ErrInvalidURN, fmt.Sprintf("phone: %q", phone))
	}

	e := &model.CallEvent{
		ChannelID: ch.ID,
		Phone:     phone,
		EventType: eventType,
		Time:      occurredOn,
		Duration:  duration,
	}

	return s.store.CallEvents().Create(e)
}

type incidentService struct {
	store storage.Interface
}

func NewIncidentService(store storage.Interface) IncidentService {
	return &incidentService{store: store}
}

func (s *incidentService) EnsureOpen(channelID int64, incidentType string, now time.Time) error {
	_, err := s.store.Incidents().FindOpen(channelID, incidentType)
	if err == nil {
		return nil
	}
	if err != storage.ErrNotFound {
		return err
	}

	return s.store.Incidents().Create(&model.Incident{
		ChannelID:    channelID,
		IncidentType: incidentType,
		OpenedAt:     now,
	})
}

func (s *incidentService) EnsureClosed(channelID int64, incidentType string, now time.Time) error {
	incident, err := s.store.Incidents().FindOpen(channelID, incidentType)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return s.store.Incidents().Close(incident.ID, now)
}

type noopPushClient struct{}

// NewNoopPushClient accepts every token. Used when no push provider is
// configured, e.g. in tests and local development.
func NewNoopPushClient() PushClient {
	return &noopPushClient{}
}

func (c *noopPushClient) ValidateToken(token string) error {
	return nil
}

func (c *noopPushClient) Notify(token string) error {
	return nil
}

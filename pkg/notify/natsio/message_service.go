package natsio

import (
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay"
	log "github.com/sirupsen/logrus"
)

type messageService struct {
	inner    relay.MessageService
	notifier *Notifier
}

// NewMessageService wraps a message service so every stored inbound message
// is also announced on NATS. Publish failures do not fail the sync, the
// routing service reconciles from the database on its own schedule.
func NewMessageService(inner relay.MessageService, notifier *Notifier) relay.MessageService {
	return &messageService{
		inner:    inner,
		notifier: notifier,
	}
}

func (s *messageService) CreateIncoming(ch *model.Channel, phone, text string, receivedOn time.Time) (int64, error) {
	id, err := s.inner.CreateIncoming(ch, phone, text, receivedOn)
	if err != nil {
		return id, err
	}

	err = s.notifier.MsgReceived(&model.Msg{
		ID:        id,
		ChannelID: ch.ID,
		URNPath:   phone,
		Text:      text,
		QueuedOn:  receivedOn,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"msg_id": id,
		}).Warn("Failed to publish msg received event: ", err)
	}

	return id, nil
}

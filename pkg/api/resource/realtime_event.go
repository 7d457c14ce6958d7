package resource

import "time"

type RealtimeEventResource struct {
	Topic      string      `json:"topic"`
	ReceivedAt time.Time   `json:"receivedAt"`
	Data       interface{} `json:"data"`
}

func NewRealtimeEvent(topic string, data interface{}) (out *RealtimeEventResource) {
	out = &RealtimeEventResource{
		Topic:      topic,
		ReceivedAt: time.Now().Round(time.Second).UTC(),
		Data:       data,
	}

	return // out
}

package api

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/rapidpro/relayd/pkg/api/resource"
	log "github.com/sirupsen/logrus"
)

// realtimeEventsHandler streams every relay event to a websocket client
// until the connection drops.
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		done := make(chan struct{})
		var once sync.Once

		sub, err := h.nc.Subscribe("relay.>", func(msg *nats.Msg) {
			topic := strings.TrimPrefix(msg.Subject, "relay.")

			var data interface{}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return
			}

			event := resource.NewRealtimeEvent(topic, data)
			out, _ := json.Marshal(event)
			if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
				log.Error("api: failed to send realtime event: ", err)
				once.Do(func() { close(done) })
			}
		})
		if err != nil {
			log.Error("api: failed to subscribe to relay events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		<-done

		return nil
	}
}

package api

import (
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/rapidpro/relayd/pkg/notify/natsio"
	"github.com/rapidpro/relayd/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Handler contains all properties to serve the operator API
type Handler struct {
	nc       *nats.Conn
	store    storage.Interface
	notifier *natsio.Notifier
}

// NewHandler create a new API handler
func NewHandler(store storage.Interface, notifier *natsio.Notifier) *Handler {
	return &Handler{
		nc:       notifier.Conn(),
		store:    store,
		notifier: notifier,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")
	api.GET("/channels", h.handleFetchChannels)
	api.GET("/channels/:id", h.handleGetChannelByID)
	api.POST("/channels/claim", h.handleClaimChannel)
	api.POST("/channels/:id/release", h.handleReleaseChannel)
	api.POST("/channels/:id/notify", h.handleNotifyChannel)

	api.GET("/channels/:id/msgs", h.handleFetchQueuedMsgs)
	api.POST("/channels/:id/msgs", h.handleCreateMsg)

	api.GET("/channels/:id/sync-events", h.handleFetchSyncEvents)
	api.GET("/channels/:id/calls", h.handleFetchCallEvents)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}

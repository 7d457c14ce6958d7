package relay

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"
	"github.com/rapidpro/relayd/pkg/relay/proto"
	log "github.com/sirupsen/logrus"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// Handler serves the device-facing relayer endpoints.
type Handler struct {
	syncer    *Syncer
	registrar *Registrar
}

// NewHandler creates a new relayer protocol handler
func NewHandler(syncer *Syncer, registrar *Registrar) *Handler {
	return &Handler{
		syncer:    syncer,
		registrar: registrar,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register relayer routes")
	e.POST("/register", h.handleRegister)
	e.POST("/sync/:id", h.handleSync)
}

func (h *Handler) handleRegister(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return syncErrorResponse(c, http.StatusBadRequest,
			proto.NewSyncError(proto.ErrCodeInvalidRequest, "Invalid request body"))
	}

	cmds, err := proto.UnmarshalSyncRequest(body)
	if err != nil {
		return syncErrorResponse(c, http.StatusBadRequest,
			proto.NewSyncError(proto.ErrCodeInvalidRequest, "Invalid request body"))
	}

	regCmd, err := h.registrar.Register(cmds)
	if err != nil {
		if proto.IsSyncError(err) {
			return syncErrorResponse(c, http.StatusBadRequest, err)
		}
		log.Error("Registration failed: ", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	data, err := proto.MarshalSyncResponse([]proto.Command{regCmd})
	if err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) handleSync(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return syncErrorResponse(c, http.StatusUnauthorized,
			proto.NewSyncError(proto.ErrCodeInvalidRequest, "Can not sync unknown channel"))
	}

	ts, err := strconv.ParseInt(c.QueryParam("ts"), 10, 64)
	if err != nil {
		return syncErrorResponse(c, http.StatusUnauthorized, proto.NewStaleRequestError())
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return syncErrorResponse(c, http.StatusUnauthorized,
			proto.NewSyncError(proto.ErrCodeInvalidRequest, "Invalid request body"))
	}

	cmds, err := h.syncer.Sync(channelID, ts, c.QueryParam("signature"), body, timeNow())
	if err != nil {
		if proto.IsSyncError(err) {
			return syncErrorResponse(c, http.StatusUnauthorized, err)
		}
		log.WithFields(log.Fields{
			"channel_id": channelID,
		}).Error("Sync failed: ", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	data, err := proto.MarshalSyncResponse(cmds)
	if err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSONBlob(http.StatusOK, data)
}

func syncErrorResponse(c echo.Context, status int, err error) error {
	syncErr, ok := err.(*proto.SyncError)
	if !ok {
		return c.NoContent(http.StatusInternalServerError)
	}

	data, err := syncErr.Marshal()
	if err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSONBlob(status, data)
}

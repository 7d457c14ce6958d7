package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	"github.com/rapidpro/relayd/pkg/api/resource"
	"github.com/rapidpro/relayd/pkg/storage"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) handleFetchQueuedMsgs(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Msgs().FetchQueued(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewMsgList(m))
}

func (h *Handler) handleCreateMsg(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	ch, err := h.store.Channels().FindByID(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	r := &resource.MsgResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := resource.ValidateMsg(r)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m.ChannelID = ch.ID
	if err := h.store.Msgs().Create(m); err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	// Nudge the device so the message does not wait for the next
	// scheduled sync
	if ch.Config.DeviceUUID != "" {
		if err := h.notifier.RequestSync(ch.Config.DeviceUUID); err != nil {
			log.Warn("Failed to request device sync after msg create: ", err)
		}
	}

	return c.JSON(http.StatusCreated, resource.NewMsg(m))
}

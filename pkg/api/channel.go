package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	"github.com/rapidpro/relayd/pkg/api/resource"
	"github.com/rapidpro/relayd/pkg/storage"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) handleFetchChannels(c echo.Context) error {
	m, err := h.store.Channels().FetchAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewChannelList(m))
}

func (h *Handler) handleGetChannelByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Channels().FindByID(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewChannel(m))
}

func (h *Handler) handleClaimChannel(c echo.Context) error {
	r := &resource.ClaimRequestResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	if err := resource.ValidateClaimRequest(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Channels().FindByClaimCode(r.ClaimCode)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	if err := h.store.Channels().Claim(m.ID, r.OrgID, r.PhoneNumber); err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	m, err = h.store.Channels().FindByID(m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	// The device learns about the claim through the claim command on its
	// next sync, a push gets it there sooner.
	if err := h.notifier.RequestSync(m.Config.DeviceUUID); err != nil {
		log.Warn("Failed to request device sync after claim: ", err)
	}

	return c.JSON(http.StatusOK, resource.NewChannel(m))
}

func (h *Handler) handleReleaseChannel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Channels().FindByID(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	if err := h.store.Channels().Release(id); err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	if err := h.notifier.ChannelReleased(m); err != nil {
		log.Warn("Failed to publish channel released event: ", err)
	}

	return c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) handleNotifyChannel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Channels().FindByID(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	if m.Config.DeviceUUID == "" {
		return c.JSON(http.StatusConflict, map[string]string{"error": "channel has no registered device"})
	}

	if err := h.notifier.RequestSync(m.Config.DeviceUUID); err != nil {
		return c.JSON(http.StatusBadGateway, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

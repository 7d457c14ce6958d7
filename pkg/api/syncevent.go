package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	"github.com/rapidpro/relayd/pkg/api/resource"
)

func (h *Handler) handleFetchSyncEvents(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.SyncEvents().FetchByChannel(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewSyncEventList(m))
}

func (h *Handler) handleFetchCallEvents(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.CallEvents().FetchByChannel(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewCallEventList(m))
}

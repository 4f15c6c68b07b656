package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/hub"
	"github.com/stagepass/storefront/internal/middleware"
)

// WSHandler upgrades GET /v1/session/ws so every open page of the user
// receives countdown and checkout events live.
type WSHandler struct {
	Hub *hub.Hub
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(h *hub.Hub) *WSHandler {
	if h == nil {
		panic("nil hub passed to NewWSHandler")
	}
	return &WSHandler{Hub: h}
}

// Subscribe attaches the connection to the user's broadcast set.
func (h *WSHandler) Subscribe(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.Hub.Subscribe(uid, c.Response(), c.Request())
}

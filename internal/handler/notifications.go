package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/notify"
)

// NotificationHandler serves the toast stack rendered at the top of every
// storefront page.
type NotificationHandler struct {
	Toasts *notify.Store
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(toasts *notify.Store) *NotificationHandler {
	if toasts == nil {
		panic("nil toast store passed to NewNotificationHandler")
	}
	return &NotificationHandler{Toasts: toasts}
}

// List handles GET /v1/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"notifications": h.Toasts.List()})
}

// Dismiss handles DELETE /v1/notifications/:id, the user closing one toast.
func (h *NotificationHandler) Dismiss(c echo.Context) error {
	if !h.Toasts.Remove(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DismissAll handles DELETE /v1/notifications.
func (h *NotificationHandler) DismissAll(c echo.Context) error {
	h.Toasts.Clear()
	return c.NoContent(http.StatusNoContent)
}

// Package handler exposes the HTTP surface of the storefront. Handlers
// are thin: they parse the request, call into a controller or the
// reservation session, and serialize the resulting snapshot. All
// coordination logic lives below them.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/upstream"
)

// respondError translates a classified failure into an HTTP response.
// Cancellation means the client went away; there is nobody to answer.
func respondError(c echo.Context, err error) error {
	fe := fault.From(err)
	switch {
	case fe.Kind == fault.Cancelled:
		return nil
	case errors.Is(fe, upstream.ErrConcertNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "concert not found"})
	case fe.Kind == fault.InvalidInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fe.Message})
	case fe.Kind == fault.CheckoutRejected:
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": fe.Message})
	case fe.Kind == fault.SessionExpired:
		return c.JSON(http.StatusGone, echo.Map{"error": fe.Message})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": fe.Message})
	}
}

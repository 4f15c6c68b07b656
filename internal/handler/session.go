package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/booking"
	"github.com/stagepass/storefront/internal/middleware"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/notify"
)

// SessionHandler exposes the reservation session: seat holds, the
// countdown and checkout. All routes require authentication; middleware
// has already placed the user id in context.
type SessionHandler struct {
	Registry *booking.Registry
	Toasts   *notify.Store
}

// NewSessionHandler constructs a SessionHandler. Both dependencies must
// be non-nil.
func NewSessionHandler(registry *booking.Registry, toasts *notify.Store) *SessionHandler {
	if registry == nil || toasts == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Registry: registry, Toasts: toasts}
}

// GetSession handles GET /v1/session: the current snapshot, or an idle
// placeholder when the user holds nothing. A snapshot with phase EXPIRED
// tells the page to show the blocking warning and leave the booking flow.
func (h *SessionHandler) GetSession(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s := h.Registry.Get(uid)
	if s == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"phase":             booking.PhaseIdle,
			"remaining_seconds": 0,
			"holds":             []model.SeatHold{},
			"total_cents":       0,
			"can_checkout":      false,
		})
	}
	return c.JSON(http.StatusOK, sessionJSON(s.Snapshot()))
}

// SelectSeat handles POST /v1/session/seats. The body names the concert
// and the seat; the first hold of a fresh session starts the countdown.
func (h *SessionHandler) SelectSeat(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ConcertID uint64 `json:"concert_id"`
		SeatID    string `json:"seat_id"`
		SeatLabel string `json:"seat_label"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ConcertID == 0 || body.SeatID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "concert_id and seat_id are required"})
	}
	s := h.Registry.Begin(uid, body.ConcertID)
	if err := s.SelectSeat(body.SeatID, body.SeatLabel); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionJSON(s.Snapshot()))
}

// DeselectSeat handles DELETE /v1/session/seats/:seatId. Rejected while a
// checkout is in flight so the payment can never race a hold mutation.
func (h *SessionHandler) DeselectSeat(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s := h.Registry.Get(uid)
	if s == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active session"})
	}
	if err := s.DeselectSeat(c.Param("seatId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(s.Snapshot()))
}

// ClearSeats handles DELETE /v1/session/seats.
func (h *SessionHandler) ClearSeats(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s := h.Registry.Get(uid)
	if s == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active session"})
	}
	if err := s.ClearSeats(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(s.Snapshot()))
}

// Checkout handles POST /v1/session/checkout. On payment failure the
// holds and countdown survive so the user can retry from the same
// screen; on success the session is gone and the confirmation returned.
func (h *SessionHandler) Checkout(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var payment model.PaymentDetails
	if err := c.Bind(&payment); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s := h.Registry.Get(uid)
	if s == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active session"})
	}
	conf, err := s.BeginCheckout(c.Request().Context(), payment)
	if err != nil {
		return respondError(c, err)
	}
	h.Registry.End(uid)
	h.Toasts.Add(notify.LevelSuccess, "Booking confirmed: "+strconv.Itoa(len(conf.SeatIDs))+" seat(s)")
	return c.JSON(http.StatusCreated, echo.Map{"booking": conf})
}

// EndSession handles DELETE /v1/session: the user left the booking flow,
// so the session and its countdown are torn down.
func (h *SessionHandler) EndSession(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	h.Registry.End(uid)
	return c.NoContent(http.StatusNoContent)
}

func sessionJSON(snap booking.Snapshot) echo.Map {
	return echo.Map{
		"session_id":        snap.SessionID,
		"concert_id":        snap.ConcertID,
		"phase":             snap.Phase,
		"remaining_seconds": snap.RemainingSeconds,
		"holds":             snap.Holds,
		"total_cents":       snap.TotalCents,
		"expiring_soon":     snap.ExpiringSoon,
		"can_checkout":      snap.CanCheckout(),
	}
}

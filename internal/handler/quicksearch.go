package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/controller"
	"github.com/stagepass/storefront/internal/upstream"
)

// QuickSearchHandler serves the navbar's live search box. Unlike the list
// endpoints it never paginates: the box shows the full result set for the
// latest keystroke that settled.
type QuickSearchHandler struct {
	API upstream.API
}

// NewQuickSearchHandler constructs a QuickSearchHandler.
func NewQuickSearchHandler(api upstream.API) *QuickSearchHandler {
	if api == nil {
		panic("nil upstream API passed to NewQuickSearchHandler")
	}
	return &QuickSearchHandler{API: api}
}

// Search handles GET /v1/quicksearch?q=. A blank query returns an empty
// result set without touching the catalog.
func (h *QuickSearchHandler) Search(c echo.Context) error {
	ctrl := controller.NewSearchController(h.API)
	defer ctrl.Close()
	if err := ctrl.SearchFor(c.Request().Context(), c.QueryParam("q")); err != nil {
		return respondError(c, err)
	}
	snap := ctrl.Snapshot()
	return c.JSON(http.StatusOK, echo.Map{
		"query":   snap.Query,
		"results": snap.Results,
	})
}

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/controller"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream"
)

// CatalogHandler serves the public browse, search, filter and detail
// endpoints. Each request binds a fresh controller to its own context, so
// a client that disconnects cancels its fetch instead of leaking it; the
// stateful cross-event coordination the controllers also support is
// exercised by the storefront views that embed them directly.
type CatalogHandler struct {
	API upstream.API
}

// NewCatalogHandler constructs a CatalogHandler. The API must be non-nil.
func NewCatalogHandler(api upstream.API) *CatalogHandler {
	if api == nil {
		panic("nil upstream API passed to NewCatalogHandler")
	}
	return &CatalogHandler{API: api}
}

// ListConcerts handles GET /v1/concerts. Query parameters: page (zero
// based), page_size (clamped to [1,100]), sort (date|title|artist) and
// dir (asc|desc).
func (h *CatalogHandler) ListConcerts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	ctrl := controller.NewListController(h.API)
	defer ctrl.Close()
	if sort := parseSort(c); sort != nil {
		ctrl.UseSort(*sort)
	}
	if err := ctrl.Load(c.Request().Context(), page, ps); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, listJSON(ctrl.Snapshot()))
}

// SearchConcerts handles GET /v1/concerts/search?q=. A blank keyword
// falls back to the first browse page.
func (h *CatalogHandler) SearchConcerts(c echo.Context) error {
	ctrl := controller.NewListController(h.API)
	defer ctrl.Close()
	if err := ctrl.Search(c.Request().Context(), c.QueryParam("q")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, listJSON(ctrl.Snapshot()))
}

// FilterConcerts handles GET /v1/concerts/filter with from/to RFC 3339
// dates and min_price/max_price in cents. Unset parameters leave that
// bound open; no parameters at all fall back to browsing.
func (h *CatalogHandler) FilterConcerts(c echo.Context) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctrl := controller.NewListController(h.API)
	defer ctrl.Close()
	if err := ctrl.Filter(c.Request().Context(), criteria); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, listJSON(ctrl.Snapshot()))
}

// GetConcert handles GET /v1/concerts/:id. The concert record and its AI
// summary load concurrently; a summary failure degrades to the
// placeholder while the concert itself still renders.
func (h *CatalogHandler) GetConcert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	ctrl := controller.NewDetailController(h.API)
	defer ctrl.Close()
	ctrl.SetConcertID(c.Request().Context(), id)

	snap := ctrl.Snapshot()
	if snap.Err != nil {
		return respondError(c, snap.Err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"concert":    snap.Concert,
		"ai_summary": snap.Summary,
	})
}

// RegenerateSummary handles POST /v1/concerts/:id/summary/regenerate for
// authenticated sellers. Concerts that already started are rejected
// before any upstream call; the catalog enforces the same rule
// authoritatively.
func (h *CatalogHandler) RegenerateSummary(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	ctx := c.Request().Context()
	ctrl := controller.NewDetailController(h.API)
	defer ctrl.Close()
	if err := ctrl.LoadDetail(ctx, id); err != nil {
		return respondError(c, err)
	}
	if err := ctrl.RegenerateSummary(ctx); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ai_summary": ctrl.Snapshot().Summary})
}

func listJSON(snap controller.ListSnapshot) echo.Map {
	return echo.Map{
		"data":        snap.Items,
		"page":        snap.PageIndex,
		"page_size":   snap.PageSize,
		"total_pages": snap.TotalPages,
		"total_items": snap.TotalItems,
		"has_next":    snap.HasNextPage(),
		"has_prev":    snap.HasPrevPage(),
		"page_strip":  controller.PageStrip(snap.PageIndex, snap.TotalPages, controller.WideWindow),
	}
}

func parseSort(c echo.Context) *model.SortSpec {
	field := strings.ToLower(strings.TrimSpace(c.QueryParam("sort")))
	if field == "" {
		return nil
	}
	dir := strings.ToLower(strings.TrimSpace(c.QueryParam("dir")))
	if dir == "" {
		dir = string(model.SortAsc)
	}
	spec := model.SortSpec{Field: model.SortField(field), Direction: model.SortDirection(dir)}
	if !spec.Valid() {
		return nil
	}
	return &spec
}

func parseCriteria(c echo.Context) (model.FilterCriteria, error) {
	var criteria model.FilterCriteria
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return criteria, errInvalidParam("from")
		}
		criteria.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return criteria, errInvalidParam("to")
		}
		criteria.To = &t
	}
	if v := c.QueryParam("min_price"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return criteria, errInvalidParam("min_price")
		}
		p := uint32(n)
		criteria.MinPriceCents = &p
	}
	if v := c.QueryParam("max_price"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return criteria, errInvalidParam("max_price")
		}
		p := uint32(n)
		criteria.MaxPriceCents = &p
	}
	return criteria, nil
}

type paramError string

func errInvalidParam(name string) error { return paramError(name) }

func (e paramError) Error() string { return "invalid " + string(e) + " parameter" }

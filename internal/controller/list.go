// Package controller implements the storefront's coordination layer: the
// stateful read models behind the concert list, the detail page and the
// live search box. Controllers own their fetch lifecycles, apply results
// only when the issuing token is still live, and expose immutable
// snapshots for rendering.
package controller

import (
	"context"
	"strings"
	"sync"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/fetch"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream"
)

// ListMode records which operation produced the current list contents.
// Search and filter are mutually exclusive: starting one clears the other
// (last invocation wins).
type ListMode int

const (
	ModeBrowse ListMode = iota // paginated catalog browsing
	ModeSearch                 // keyword search, single synthesized page
	ModeFilter                 // structured filter, single synthesized page
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListController manages the paginated, sortable, filterable concert list.
// All list operations share one fetch lifecycle, so a reload supersedes a
// pending search and vice versa; a superseded response is never applied.
type ListController struct {
	api upstream.API

	mu       sync.Mutex
	lc       fetch.Lifecycle
	items    []model.Concert
	page     int
	size     int // browse page size; synthesized modes report len(items)
	totPages int
	totItems int
	sort     model.SortSpec
	mode     ListMode
	keyword  string
	criteria model.FilterCriteria
	loading  bool
	err      *fault.Error
}

// NewListController returns a controller with the default page size and
// sort (concert date ascending). Nothing is fetched until Load is called.
func NewListController(api upstream.API) *ListController {
	return &ListController{
		api:  api,
		size: defaultPageSize,
		sort: model.DefaultSort(),
	}
}

// ListSnapshot is the immutable read model handed to the view.
type ListSnapshot struct {
	Items      []model.Concert
	PageIndex  int
	PageSize   int
	TotalPages int
	TotalItems int
	Sort       model.SortSpec
	Mode       ListMode
	Keyword    string
	Loading    bool
	Err        *fault.Error
}

// IsEmpty reports a settled, successful, zero-item list.
func (s ListSnapshot) IsEmpty() bool { return !s.Loading && s.Err == nil && len(s.Items) == 0 }

// HasError reports a settled failure.
func (s ListSnapshot) HasError() bool { return s.Err != nil }

// HasNextPage reports whether a later page exists.
func (s ListSnapshot) HasNextPage() bool { return s.PageIndex+1 < s.TotalPages }

// HasPrevPage reports whether an earlier page exists.
func (s ListSnapshot) HasPrevPage() bool { return s.PageIndex > 0 }

// Snapshot returns the current state. The items slice is shared but
// treated as read-only by every consumer.
func (c *ListController) Snapshot() ListSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.size
	if c.mode != ModeBrowse {
		size = len(c.items)
	}
	return ListSnapshot{
		Items:      c.items,
		PageIndex:  c.page,
		PageSize:   size,
		TotalPages: c.totPages,
		TotalItems: c.totItems,
		Sort:       c.sort,
		Mode:       c.mode,
		Keyword:    c.keyword,
		Loading:    c.loading,
		Err:        c.err,
	}
}

// Load fetches one catalog page. On success the items and pagination
// fields are replaced wholesale; on failure the items are emptied so a
// failed load never leaves a part-populated page on screen.
func (c *ListController) Load(ctx context.Context, pageIndex, pageSize int) error {
	if pageIndex < 0 || pageSize < 1 || pageSize > maxPageSize {
		return fault.New(fault.InvalidInput, "invalid page request")
	}

	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mode = ModeBrowse
	c.keyword = ""
	c.criteria = model.FilterCriteria{}
	sort := c.sort
	tok := c.lc.Start(ctx)
	c.mu.Unlock()

	page, err := c.api.ListConcerts(tok.Context(), pageIndex, pageSize, sort)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return nil
	}
	c.lc.Finish(tok)
	if err != nil {
		fe := fault.From(err)
		if fe.Kind == fault.Cancelled {
			return nil
		}
		c.loading = false
		c.err = fe
		c.items = []model.Concert{}
		c.page = pageIndex
		c.size = pageSize
		c.totPages = 0
		c.totItems = 0
		return fe
	}
	c.loading = false
	c.items = page.Items
	c.page = page.PageIndex
	c.size = pageSize
	c.totPages = page.TotalPages
	c.totItems = page.TotalItems
	return nil
}

// Search runs a keyword search over the whole catalog. A blank keyword is
// "no search": the controller falls back to loading page zero at the
// current page size. A non-blank keyword replaces the list with the full
// result set presented as a single synthesized page, and clears any active
// filter criteria.
func (c *ListController) Search(ctx context.Context, keyword string) error {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return c.Load(ctx, 0, c.browsePageSize())
	}

	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mode = ModeSearch
	c.keyword = kw
	c.criteria = model.FilterCriteria{}
	tok := c.lc.Start(ctx)
	c.mu.Unlock()

	results, err := c.api.SearchConcerts(tok.Context(), kw)
	return c.applyUnpaginated(tok, results, err)
}

// Filter narrows the catalog by date/price ranges. Empty criteria fall
// back to browsing, mirroring Search. Activating a filter clears any
// active search keyword (last invocation wins).
func (c *ListController) Filter(ctx context.Context, criteria model.FilterCriteria) error {
	if criteria.Empty() {
		return c.Load(ctx, 0, c.browsePageSize())
	}

	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mode = ModeFilter
	c.keyword = ""
	c.criteria = criteria
	tok := c.lc.Start(ctx)
	c.mu.Unlock()

	results, err := c.api.FilterConcerts(tok.Context(), criteria)
	return c.applyUnpaginated(tok, results, err)
}

// applyUnpaginated settles a search or filter fetch: the full result set
// becomes page zero, sized to the result count.
func (c *ListController) applyUnpaginated(tok *fetch.Token, results []model.Concert, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return nil
	}
	c.lc.Finish(tok)
	if err != nil {
		fe := fault.From(err)
		if fe.Kind == fault.Cancelled {
			return nil
		}
		c.loading = false
		c.err = fe
		c.items = []model.Concert{}
		c.page = 0
		c.totPages = 0
		c.totItems = 0
		return fe
	}
	page := model.SinglePage(results)
	c.loading = false
	c.items = page.Items
	c.page = 0
	c.totPages = page.TotalPages
	c.totItems = page.TotalItems
	return nil
}

// GoToPage navigates to page n while browsing. Out-of-range targets and
// synthesized single-page modes are no-ops.
func (c *ListController) GoToPage(ctx context.Context, n int) error {
	c.mu.Lock()
	if c.mode != ModeBrowse || n < 0 || n >= c.totPages {
		c.mu.Unlock()
		return nil
	}
	size := c.size
	c.mu.Unlock()
	return c.Load(ctx, n, size)
}

// ChangePageSize resets to page zero with the new size. Sizes outside
// [1,100] are rejected as a no-op.
func (c *ListController) ChangePageSize(ctx context.Context, size int) error {
	if size < 1 || size > maxPageSize {
		return nil
	}
	return c.Load(ctx, 0, size)
}

// UseSort stores a sort order without fetching. For view initialization
// before the first Load; interactive sort changes go through SetSort.
func (c *ListController) UseSort(sort model.SortSpec) {
	if !sort.Valid() {
		return
	}
	c.mu.Lock()
	c.sort = sort
	c.mu.Unlock()
}

// SetSort stores a new sort order and reloads page zero. Unknown fields
// or directions are a no-op.
func (c *ListController) SetSort(ctx context.Context, sort model.SortSpec) error {
	if !sort.Valid() {
		return nil
	}
	c.mu.Lock()
	c.sort = sort
	size := c.size
	c.mu.Unlock()
	return c.Load(ctx, 0, size)
}

// Retry re-runs whichever operation produced the current list. Backs the
// retry affordance shown next to a failed load.
func (c *ListController) Retry(ctx context.Context) error {
	c.mu.Lock()
	mode, kw, criteria := c.mode, c.keyword, c.criteria
	page, size := c.page, c.size
	c.mu.Unlock()
	switch mode {
	case ModeSearch:
		return c.Search(ctx, kw)
	case ModeFilter:
		return c.Filter(ctx, criteria)
	default:
		return c.Load(ctx, page, size)
	}
}

// Close cancels any in-flight request. Call on view teardown; a response
// arriving afterwards is discarded, not applied.
func (c *ListController) Close() {
	c.lc.Cancel()
}

func (c *ListController) browsePageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

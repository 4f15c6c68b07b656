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

// SearchController manages the live search box: a stored query string and
// the result set for the most recent search. Rapid consecutive searches
// supersede each other; whatever order the responses arrive in, only the
// last issued request may settle into results (last write wins).
type SearchController struct {
	api upstream.API

	mu      sync.Mutex
	lc      fetch.Lifecycle
	query   string
	results []model.Concert
	loading bool
	err     *fault.Error
}

// NewSearchController returns an empty controller.
func NewSearchController(api upstream.API) *SearchController {
	return &SearchController{api: api}
}

// SearchSnapshot is the read model for the search box.
type SearchSnapshot struct {
	Query   string
	Results []model.Concert
	Loading bool
	Err     *fault.Error
}

// CanSearch reports whether the stored query would trigger a request.
func (s SearchSnapshot) CanSearch() bool { return strings.TrimSpace(s.Query) != "" }

// HasError reports a settled failure.
func (s SearchSnapshot) HasError() bool { return s.Err != nil }

// IsEmpty reports a settled, successful, zero-result search.
func (s SearchSnapshot) IsEmpty() bool { return !s.Loading && s.Err == nil && len(s.Results) == 0 }

// Snapshot returns the current state.
func (c *SearchController) Snapshot() SearchSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SearchSnapshot{Query: c.query, Results: c.results, Loading: c.loading, Err: c.err}
}

// SetQuery stores the query text without triggering a fetch; the caller
// decides when to invoke PerformSearch (debouncing lives in the view).
func (c *SearchController) SetQuery(text string) {
	c.mu.Lock()
	c.query = text
	c.mu.Unlock()
}

// PerformSearch searches the stored query.
func (c *SearchController) PerformSearch(ctx context.Context) error {
	c.mu.Lock()
	kw := c.query
	c.mu.Unlock()
	return c.run(ctx, kw)
}

// SearchFor stores the keyword, then searches it.
func (c *SearchController) SearchFor(ctx context.Context, keyword string) error {
	c.SetQuery(keyword)
	return c.run(ctx, keyword)
}

// run issues one search. A blank keyword clears the results without a
// network call. The previous in-flight request is cancelled before the
// new one is issued, and a cancelled request's eventual resolution is
// ignored entirely: genuine cancellation is not a user-facing error.
func (c *SearchController) run(ctx context.Context, keyword string) error {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		c.lc.Cancel()
		c.mu.Lock()
		c.results = []model.Concert{}
		c.loading = false
		c.err = nil
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.loading = true
	c.err = nil
	tok := c.lc.Start(ctx)
	c.mu.Unlock()

	results, err := c.api.SearchConcerts(tok.Context(), kw)

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
		c.results = []model.Concert{}
		return fe
	}
	c.loading = false
	c.results = results
	return nil
}

// ClearAll resets query and results, cancelling any in-flight request.
func (c *SearchController) ClearAll() {
	c.lc.Cancel()
	c.mu.Lock()
	c.query = ""
	c.results = nil
	c.loading = false
	c.err = nil
	c.mu.Unlock()
}

// ClearQuery resets only the query text, cancelling any in-flight request.
func (c *SearchController) ClearQuery() {
	c.lc.Cancel()
	c.mu.Lock()
	c.query = ""
	c.loading = false
	c.mu.Unlock()
}

// ClearResults resets only the result set, cancelling any in-flight
// request.
func (c *SearchController) ClearResults() {
	c.lc.Cancel()
	c.mu.Lock()
	c.results = nil
	c.loading = false
	c.err = nil
	c.mu.Unlock()
}

// Close cancels any in-flight request. Call on view teardown.
func (c *SearchController) Close() {
	c.lc.Cancel()
}

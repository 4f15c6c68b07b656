package controller

import (
	"context"
	"sync"
	"time"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/fetch"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream"
)

// SummaryUnavailable is the placeholder rendered inline when the AI
// summary cannot be fetched. A summary failure is deliberately quiet: it
// never blocks the concert detail itself.
const SummaryUnavailable = "Summary is unavailable right now."

// DetailController manages one concert's detail page: the concert record
// itself plus the independently loaded AI summary. The two resources have
// separate lifecycles and loading flags; a summary failure degrades to a
// placeholder instead of surfacing through the primary error channel.
type DetailController struct {
	api upstream.API
	now func() time.Time

	mu             sync.Mutex
	detailLC       fetch.Lifecycle
	summaryLC      fetch.Lifecycle
	id             uint64
	concert        *model.Concert
	loading        bool
	err            *fault.Error
	summary        string
	summaryLoading bool
}

// NewDetailController returns an empty controller. Nothing is fetched
// until SetConcertID or Refresh is called.
func NewDetailController(api upstream.API) *DetailController {
	return &DetailController{api: api, now: time.Now}
}

// DetailSnapshot is the read model for the detail page.
type DetailSnapshot struct {
	ConcertID      uint64
	Concert        *model.Concert
	Loading        bool
	Err            *fault.Error
	Summary        string
	SummaryLoading bool
}

// HasConcert reports whether the primary content is available.
func (s DetailSnapshot) HasConcert() bool { return s.Concert != nil }

// HasError reports a settled primary failure.
func (s DetailSnapshot) HasError() bool { return s.Err != nil }

// Snapshot returns the current state.
func (c *DetailController) Snapshot() DetailSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DetailSnapshot{
		ConcertID:      c.id,
		Concert:        c.concert,
		Loading:        c.loading,
		Err:            c.err,
		Summary:        c.summary,
		SummaryLoading: c.summaryLoading,
	}
}

// LoadDetail fetches the concert record. Missing or non-positive ids fail
// fast without a network call. On failure the stored concert is cleared
// and a user-facing error recorded.
func (c *DetailController) LoadDetail(ctx context.Context, id uint64) error {
	if id < 1 {
		fe := fault.New(fault.InvalidInput, "invalid concert id")
		c.mu.Lock()
		c.concert = nil
		c.err = fe
		c.loading = false
		c.mu.Unlock()
		return fe
	}

	c.mu.Lock()
	c.id = id
	c.loading = true
	c.err = nil
	tok := c.detailLC.Start(ctx)
	c.mu.Unlock()

	concert, err := c.api.GetConcert(tok.Context(), id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return nil
	}
	c.detailLC.Finish(tok)
	if err != nil {
		fe := fault.From(err)
		if fe.Kind == fault.Cancelled {
			return nil
		}
		c.loading = false
		c.concert = nil
		c.err = fe
		return fe
	}
	c.loading = false
	c.concert = concert
	return nil
}

// LoadSummary fetches the AI summary. Failures are non-fatal: the
// placeholder is stored and the primary error channel stays untouched.
func (c *DetailController) LoadSummary(ctx context.Context, id uint64) error {
	if id < 1 {
		return fault.New(fault.InvalidInput, "invalid concert id")
	}

	c.mu.Lock()
	c.summaryLoading = true
	tok := c.summaryLC.Start(ctx)
	c.mu.Unlock()

	summary, err := c.api.GetAISummary(tok.Context(), id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return nil
	}
	c.summaryLC.Finish(tok)
	c.summaryLoading = false
	if err != nil {
		if fault.IsCancelled(err) {
			return nil
		}
		c.summary = SummaryUnavailable
		return fault.Wrap(fault.PartialFailure, SummaryUnavailable, err)
	}
	c.summary = summary
	return nil
}

// Refresh loads the concert and its summary concurrently. Each branch
// settles its own state; Refresh itself never fails.
func (c *DetailController) Refresh(ctx context.Context, id uint64) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.LoadDetail(ctx, id)
	}()
	go func() {
		defer wg.Done()
		_ = c.LoadSummary(ctx, id)
	}()
	wg.Wait()
}

// SetConcertID switches the page to another concert. Setting the current
// id again, or an invalid id, is a no-op so route re-renders do not cause
// redundant network traffic. Otherwise both states are cleared before the
// refresh so stale content from the previous concert never shows.
func (c *DetailController) SetConcertID(ctx context.Context, newID uint64) {
	c.mu.Lock()
	if newID < 1 || newID == c.id {
		c.mu.Unlock()
		return
	}
	c.id = newID
	c.concert = nil
	c.err = nil
	c.summary = ""
	c.summaryLoading = false
	c.mu.Unlock()
	c.Refresh(ctx, newID)
}

// RegenerateSummary asks the catalog to rebuild the summary on behalf of
// the concert's seller. Concerts that already started are rejected
// client-side as a usability guard; the server remains the authority.
func (c *DetailController) RegenerateSummary(ctx context.Context) error {
	c.mu.Lock()
	concert := c.concert
	if concert == nil {
		c.mu.Unlock()
		return fault.New(fault.InvalidInput, "no concert loaded")
	}
	if concert.Started(c.now()) {
		c.mu.Unlock()
		return fault.New(fault.InvalidInput, "the concert has already started")
	}
	c.summaryLoading = true
	tok := c.summaryLC.Start(ctx)
	c.mu.Unlock()

	summary, err := c.api.RegenerateAISummary(tok.Context(), concert.SellerID, concert.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return nil
	}
	c.summaryLC.Finish(tok)
	c.summaryLoading = false
	if err != nil {
		if fault.IsCancelled(err) {
			return nil
		}
		return fault.From(err)
	}
	c.summary = summary
	return nil
}

// Close cancels both in-flight fetches. Call on view teardown.
func (c *DetailController) Close() {
	c.detailLC.Cancel()
	c.summaryLC.Cancel()
}

package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream/mocks"
)

// gatedSearchAPI lets a test hold a search response hostage until the
// gate opens, to exercise supersession with out-of-order completions.
type gatedSearchAPI struct {
	mocks.MockAPI
	mu    sync.Mutex
	gates map[string]chan struct{}
	hits  map[string][]model.Concert
}

func newGatedSearchAPI() *gatedSearchAPI {
	return &gatedSearchAPI{
		gates: make(map[string]chan struct{}),
		hits:  make(map[string][]model.Concert),
	}
}

// stub registers a result set for a keyword behind a gate.
func (g *gatedSearchAPI) stub(keyword string, results []model.Concert) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[keyword] = gate
	g.hits[keyword] = results
	return gate
}

func (g *gatedSearchAPI) SearchConcerts(ctx context.Context, keyword string) ([]model.Concert, error) {
	g.mu.Lock()
	gate := g.gates[keyword]
	results := g.hits[keyword]
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

func TestSearchLastWriteWins(t *testing.T) {
	api := newGatedSearchAPI()
	slowGate := api.stub("rock", makeConcerts(9))
	fastGate := api.stub("rock ballads", makeConcerts(2))

	ctrl := NewSearchController(api)
	defer ctrl.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	firstIssued := make(chan struct{})
	go func() {
		defer wg.Done()
		close(firstIssued)
		_ = ctrl.SearchFor(context.Background(), "rock")
	}()
	<-firstIssued
	time.Sleep(20 * time.Millisecond) // let the first request reach the fake
	go func() {
		defer wg.Done()
		_ = ctrl.SearchFor(context.Background(), "rock ballads")
	}()
	time.Sleep(20 * time.Millisecond)

	// The newer request settles first, then the stale one completes.
	close(fastGate)
	close(slowGate)
	wg.Wait()

	// Only the last issued search may populate results, regardless of
	// completion order.
	snap := ctrl.Snapshot()
	assert.Equal(t, "rock ballads", snap.Query)
	assert.Len(t, snap.Results, 2)
	assert.False(t, snap.HasError())
}

func TestSearchBlankQueryClearsWithoutNetwork(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("SearchConcerts", mock.Anything, "rock").Return(makeConcerts(4), nil)

	ctrl := NewSearchController(api)
	defer ctrl.Close()
	require.NoError(t, ctrl.SearchFor(context.Background(), "rock"))
	require.Len(t, ctrl.Snapshot().Results, 4)

	require.NoError(t, ctrl.SearchFor(context.Background(), "   "))
	snap := ctrl.Snapshot()
	assert.True(t, snap.IsEmpty())
	assert.False(t, snap.CanSearch())
	api.AssertNumberOfCalls(t, "SearchConcerts", 1)
}

func TestSearchFailureEmptiesResults(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("SearchConcerts", mock.Anything, "rock").Return(makeConcerts(4), nil).Once()
	api.On("SearchConcerts", mock.Anything, "jazz").Return(nil, errors.New("boom")).Once()

	ctrl := NewSearchController(api)
	defer ctrl.Close()
	require.NoError(t, ctrl.SearchFor(context.Background(), "rock"))
	require.Error(t, ctrl.SearchFor(context.Background(), "jazz"))

	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Results)
	assert.True(t, snap.HasError())
}

func TestSearchCancelledRequestIsSilentlyDropped(t *testing.T) {
	api := newGatedSearchAPI()
	api.stub("rock", makeConcerts(4)) // gate never opens; context cancels it

	ctrl := NewSearchController(api)
	defer ctrl.Close()

	done := make(chan error, 1)
	go func() { done <- ctrl.SearchFor(context.Background(), "rock") }()
	time.Sleep(20 * time.Millisecond)
	ctrl.Close()

	require.NoError(t, <-done)
	snap := ctrl.Snapshot()
	assert.False(t, snap.HasError(), "cancellation must never surface as an error")
	assert.Empty(t, snap.Results)
}

func TestSearchSetQueryDoesNotFetch(t *testing.T) {
	api := new(mocks.MockAPI)
	ctrl := NewSearchController(api)
	defer ctrl.Close()

	ctrl.SetQuery("rock")
	snap := ctrl.Snapshot()
	assert.True(t, snap.CanSearch())
	assert.Empty(t, snap.Results)
	api.AssertNotCalled(t, "SearchConcerts", mock.Anything, mock.Anything)
}

func TestSearchPerformSearchUsesStoredQuery(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("SearchConcerts", mock.Anything, "indie").Return(makeConcerts(3), nil)

	ctrl := NewSearchController(api)
	defer ctrl.Close()
	ctrl.SetQuery("indie")
	require.NoError(t, ctrl.PerformSearch(context.Background()))
	assert.Len(t, ctrl.Snapshot().Results, 3)
	api.AssertExpectations(t)
}

func TestSearchClearAll(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("SearchConcerts", mock.Anything, "rock").Return(makeConcerts(4), nil)

	ctrl := NewSearchController(api)
	defer ctrl.Close()
	require.NoError(t, ctrl.SearchFor(context.Background(), "rock"))

	ctrl.ClearAll()
	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Query)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.HasError())
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream"
	"github.com/stagepass/storefront/internal/upstream/mocks"
)

func catalogConcerts(n int) []model.Concert {
	out := make([]model.Concert, n)
	base := time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = model.Concert{
			ID:       uint64(i + 1),
			SellerID: 42,
			Title:    fmt.Sprintf("Concert %d", i+1),
			Artist:   "The Soundchecks",
			StartsAt: base.AddDate(0, 0, i),
			Status:   model.StatusOnSale,
		}
	}
	return out
}

func setupCatalog(api *mocks.MockAPI) *echo.Echo {
	e := echo.New()
	h := NewCatalogHandler(api)
	e.GET("/v1/concerts", h.ListConcerts)
	e.GET("/v1/concerts/search", h.SearchConcerts)
	e.GET("/v1/concerts/filter", h.FilterConcerts)
	e.GET("/v1/concerts/:id", h.GetConcert)
	e.POST("/v1/concerts/:id/summary/regenerate", h.RegenerateSummary)
	return e
}

func TestCatalog_ListConcerts(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("ListConcerts", mock.Anything, 1, 20, model.DefaultSort()).
		Return(model.Page[model.Concert]{
			Items:      catalogConcerts(20),
			PageIndex:  1,
			PageSize:   20,
			TotalPages: 3,
			TotalItems: 45,
		}, nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts?page=1&page_size=20", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data       []model.Concert `json:"data"`
		Page       int             `json:"page"`
		TotalPages int             `json:"total_pages"`
		TotalItems int             `json:"total_items"`
		HasNext    bool            `json:"has_next"`
		HasPrev    bool            `json:"has_prev"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 20)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 3, body.TotalPages)
	assert.Equal(t, 45, body.TotalItems)
	assert.True(t, body.HasNext)
	assert.True(t, body.HasPrev)
	api.AssertExpectations(t)
}

func TestCatalog_ListConcertsClampsPageSize(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("ListConcerts", mock.Anything, 0, 100, model.DefaultSort()).
		Return(model.Page[model.Concert]{Items: catalogConcerts(45), TotalPages: 1, TotalItems: 45}, nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts?page_size=500", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	api.AssertExpectations(t)
}

func TestCatalog_ListConcertsWithSort(t *testing.T) {
	byArtist := model.SortSpec{Field: model.SortByArtist, Direction: model.SortDesc}
	api := new(mocks.MockAPI)
	api.On("ListConcerts", mock.Anything, 0, 20, byArtist).
		Return(model.Page[model.Concert]{Items: catalogConcerts(20), TotalPages: 3, TotalItems: 45}, nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts?sort=artist&dir=desc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	api.AssertExpectations(t)
}

func TestCatalog_ListConcertsUpstreamDown(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("ListConcerts", mock.Anything, 0, 20, model.DefaultSort()).
		Return(model.Page[model.Concert]{}, fmt.Errorf("connection refused"))
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCatalog_SearchConcerts(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("SearchConcerts", mock.Anything, "soundchecks").Return(catalogConcerts(7), nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts/search?q=soundchecks", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data       []model.Concert `json:"data"`
		TotalPages int             `json:"total_pages"`
		PageSize   int             `json:"page_size"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 7)
	assert.Equal(t, 1, body.TotalPages)
	assert.Equal(t, 7, body.PageSize)
	api.AssertExpectations(t)
}

func TestCatalog_FilterConcerts(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("FilterConcerts", mock.Anything, mock.MatchedBy(func(c model.FilterCriteria) bool {
		return c.MinPriceCents != nil && *c.MinPriceCents == 2000 && c.From != nil
	})).Return(catalogConcerts(3), nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/concerts/filter?from=2026-09-01T00:00:00Z&min_price=2000", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	api.AssertExpectations(t)
}

func TestCatalog_FilterConcertsBadParams(t *testing.T) {
	e := setupCatalog(new(mocks.MockAPI))

	for _, q := range []string{"from=yesterday", "min_price=free", "to=later"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/concerts/filter?"+q, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestCatalog_GetConcert(t *testing.T) {
	api := new(mocks.MockAPI)
	concert := &model.Concert{ID: 7, SellerID: 42, Title: "Farewell Tour"}
	api.On("GetConcert", mock.Anything, uint64(7)).Return(concert, nil)
	api.On("GetAISummary", mock.Anything, uint64(7)).Return("A great show.", nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts/7", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Concert   model.Concert `json:"concert"`
		AISummary string        `json:"ai_summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Farewell Tour", body.Concert.Title)
	assert.Equal(t, "A great show.", body.AISummary)
}

func TestCatalog_GetConcertSummaryDegrades(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("GetConcert", mock.Anything, uint64(7)).Return(&model.Concert{ID: 7}, nil)
	api.On("GetAISummary", mock.Anything, uint64(7)).Return("", fmt.Errorf("model overloaded"))
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts/7", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// Still a 200: the summary failure degrades to the placeholder text.
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		AISummary string `json:"ai_summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.AISummary)
}

func TestCatalog_GetConcertNotFound(t *testing.T) {
	api := new(mocks.MockAPI)
	notFound := fmt.Errorf("wrapped: %w", upstream.ErrConcertNotFound)
	api.On("GetConcert", mock.Anything, uint64(999)).Return(nil, notFound)
	api.On("GetAISummary", mock.Anything, uint64(999)).Return("", notFound)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts/999", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalog_GetConcertBadID(t *testing.T) {
	e := setupCatalog(new(mocks.MockAPI))

	req := httptest.NewRequest(http.MethodGet, "/v1/concerts/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalog_RegenerateSummary(t *testing.T) {
	api := new(mocks.MockAPI)
	concert := &model.Concert{ID: 7, SellerID: 42, StartsAt: time.Now().Add(48 * time.Hour)}
	api.On("GetConcert", mock.Anything, uint64(7)).Return(concert, nil)
	api.On("RegenerateAISummary", mock.Anything, uint64(42), uint64(7)).Return("Rewritten.", nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodPost, "/v1/concerts/7/summary/regenerate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		AISummary string `json:"ai_summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Rewritten.", body.AISummary)
	api.AssertExpectations(t)
}

func TestCatalog_RegenerateSummaryStartedConcert(t *testing.T) {
	api := new(mocks.MockAPI)
	concert := &model.Concert{ID: 7, SellerID: 42, StartsAt: time.Now().Add(-time.Hour)}
	api.On("GetConcert", mock.Anything, uint64(7)).Return(concert, nil)
	e := setupCatalog(api)

	req := httptest.NewRequest(http.MethodPost, "/v1/concerts/7/summary/regenerate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	api.AssertNotCalled(t, "RegenerateAISummary", mock.Anything, mock.Anything, mock.Anything)
}

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/model"
)

// Client talks JSON over HTTP to the catalog/booking services.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL, e.g.
// "https://api.example.com". A zero timeout disables the client-side
// deadline; per-request contexts still apply.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// concertList is the envelope the catalog uses for unpaginated result sets.
type concertList struct {
	Items []model.Concert `json:"items"`
}

// ListConcerts fetches one page of the catalog with the given sort.
func (c *Client) ListConcerts(ctx context.Context, pageIndex, pageSize int, sort model.SortSpec) (model.Page[model.Concert], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageIndex))
	q.Set("page_size", strconv.Itoa(pageSize))
	if sort.Valid() {
		q.Set("sort", string(sort.Field))
		q.Set("dir", string(sort.Direction))
	}
	var page model.Page[model.Concert]
	if err := c.get(ctx, "/v1/concerts?"+q.Encode(), &page); err != nil {
		return model.Page[model.Concert]{}, err
	}
	return page, nil
}

// SearchConcerts runs an unpaginated keyword search.
func (c *Client) SearchConcerts(ctx context.Context, keyword string) ([]model.Concert, error) {
	q := url.Values{}
	q.Set("q", keyword)
	var out concertList
	if err := c.get(ctx, "/v1/concerts/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// FilterConcerts runs an unpaginated structured filter.
func (c *Client) FilterConcerts(ctx context.Context, criteria model.FilterCriteria) ([]model.Concert, error) {
	q := url.Values{}
	if criteria.From != nil {
		q.Set("from", criteria.From.UTC().Format(time.RFC3339))
	}
	if criteria.To != nil {
		q.Set("to", criteria.To.UTC().Format(time.RFC3339))
	}
	if criteria.MinPriceCents != nil {
		q.Set("min_price", strconv.FormatUint(uint64(*criteria.MinPriceCents), 10))
	}
	if criteria.MaxPriceCents != nil {
		q.Set("max_price", strconv.FormatUint(uint64(*criteria.MaxPriceCents), 10))
	}
	var out concertList
	if err := c.get(ctx, "/v1/concerts/filter?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetConcert fetches a single concert by id.
func (c *Client) GetConcert(ctx context.Context, id uint64) (*model.Concert, error) {
	var concert model.Concert
	if err := c.get(ctx, fmt.Sprintf("/v1/concerts/%d", id), &concert); err != nil {
		return nil, err
	}
	return &concert, nil
}

// GetAISummary fetches the generated summary text for a concert.
func (c *Client) GetAISummary(ctx context.Context, id uint64) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/concerts/%d/summary", id), &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// RegenerateAISummary asks the catalog to rebuild a concert's summary on
// behalf of its seller. The server rejects concerts that already started.
func (c *Client) RegenerateAISummary(ctx context.Context, sellerID, concertID uint64) (string, error) {
	path := fmt.Sprintf("/v1/sellers/%d/concerts/%d/summary", sellerID, concertID)
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// CreateBooking submits the held seats and payment details. A declined
// payment surfaces as ErrPaymentRejected with kind CheckoutRejected.
func (c *Client) CreateBooking(ctx context.Context, seatIDs []string, payment model.PaymentDetails) (*model.BookingConfirmation, error) {
	body := map[string]any{
		"seat_ids": seatIDs,
		"payment":  payment,
	}
	var conf model.BookingConfirmation
	if err := c.do(ctx, http.MethodPost, "/v1/bookings", body, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fault.Wrap(fault.InvalidInput, "invalid request payload", err)
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fault.Wrap(fault.InvalidInput, "invalid request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fault.Wrap(fault.Cancelled, "request cancelled", ctx.Err())
		}
		return fault.Wrap(fault.NetworkFailure, "could not reach the ticketing service", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.ServerFailure, "unexpected response from the ticketing service", err)
	}
	return nil
}

// checkStatus maps non-2xx responses onto sentinel errors and fault kinds.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := readErrorMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fault.Wrap(fault.ServerFailure, "concert not found", ErrConcertNotFound)
	case resp.StatusCode == http.StatusPaymentRequired:
		if msg == "" {
			msg = "payment was declined"
		}
		return fault.Wrap(fault.CheckoutRejected, msg, ErrPaymentRejected)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return fault.Wrap(fault.InvalidInput, "the concert has already started", ErrConcertStarted)
	case resp.StatusCode >= 500:
		return fault.New(fault.ServerFailure, "the ticketing service is having trouble, please try again")
	default:
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return fault.New(fault.ServerFailure, msg)
	}
}

// readErrorMessage pulls the "error" field from a failure body, best
// effort. Bodies are capped so a misbehaving upstream cannot balloon
// memory.
func readErrorMessage(r io.Reader) string {
	var out struct {
		Error string `json:"error"`
	}
	bs, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(bs, &out); err != nil {
		return ""
	}
	return out.Error
}

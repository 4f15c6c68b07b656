package model

import "time"

// ConcertStatus is a read-only projection of the catalog's lifecycle for a
// concert. The storefront never transitions these locally; it only renders
// whatever the catalog reports.
type ConcertStatus string

const (
	StatusScheduled ConcertStatus = "SCHEDULED" // announced, tickets not yet on sale
	StatusOnSale    ConcertStatus = "ON_SALE"   // tickets available for purchase
	StatusSoldOut   ConcertStatus = "SOLD_OUT"  // no seats left
	StatusCancelled ConcertStatus = "CANCELLED" // concert will not take place
	StatusCompleted ConcertStatus = "COMPLETED" // concert already happened
)

// Concert represents a single concert as returned by the upstream catalog.
// The storefront treats it as opaque read-only data: fields are stored and
// displayed, never mutated.
//
// Fields:
//  ID         – catalog identifier.
//  SellerID   – account that listed the concert; needed for summary
//               regeneration requests.
//  Title      – concert or tour name.
//  Artist     – headline act.
//  Venue      – venue display name.
//  StartsAt   – when the concert begins.
//  EndsAt     – when the concert ends.
//  PriceCents – base seat price in cents.
//  Status     – catalog lifecycle state, see ConcertStatus.
type Concert struct {
	ID         uint64        `json:"id"`
	SellerID   uint64        `json:"seller_id"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Venue      string        `json:"venue"`
	StartsAt   time.Time     `json:"starts_at"`
	EndsAt     time.Time     `json:"ends_at"`
	PriceCents uint32        `json:"price_cents"`
	Status     ConcertStatus `json:"status"`
}

// Started reports whether the concert's start time has already passed at
// the given instant. Summary regeneration is rejected for started concerts.
func (c Concert) Started(now time.Time) bool {
	return !c.StartsAt.IsZero() && c.StartsAt.Before(now)
}

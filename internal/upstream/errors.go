// Package upstream is the storefront's client for the external catalog and
// booking services. It plays the role a SQL repository layer would play in
// a self-contained service: typed accessors, sentinel errors for the
// failure cases handlers care about, and nothing else. Transport details
// (auth cookies, interceptors, base-URL wiring) stay inside this package.
package upstream

import "errors"

// ErrConcertNotFound is returned when the catalog has no concert with the
// requested id. Handlers translate this into an HTTP 404 response.
var ErrConcertNotFound = errors.New("concert not found")

// ErrPaymentRejected is returned when the booking service declines the
// payment. The reservation session keeps its holds so the user can retry.
var ErrPaymentRejected = errors.New("payment rejected")

// ErrConcertStarted is returned when summary regeneration is requested for
// a concert whose start time has passed. The client pre-checks this, but
// the server stays the authority.
var ErrConcertStarted = errors.New("concert already started")

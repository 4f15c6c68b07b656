package model

import "time"

// SeatHold represents one seat currently held by the active reservation
// session. Holds live only for the duration of the browsing session; they
// are never written to durable storage on this side. The authoritative
// server-side hold is managed by the booking service.
//
// Fields:
//  SeatID    – opaque seat identifier from the venue seat map.
//  SeatLabel – human-readable label shown in the cart (e.g. "B12").
//  HeldAt    – when the seat was added to the session.
type SeatHold struct {
	SeatID    string    `json:"seat_id"`
	SeatLabel string    `json:"seat_label"`
	HeldAt    time.Time `json:"held_at"`
}

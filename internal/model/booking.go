package model

import "time"

// PaymentDetails carries what the payment collaborator needs to charge the
// user. The storefront forwards it verbatim; card validation and the
// gateway protocol live upstream.
type PaymentDetails struct {
	Method    string `json:"method"`
	CardToken string `json:"card_token"`
}

// BookingConfirmation is returned by the booking service when a checkout
// succeeds. ConfirmedAt is the server's timestamp, not ours.
type BookingConfirmation struct {
	BookingID   string    `json:"booking_id"`
	ConcertID   uint64    `json:"concert_id"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalCents  uint32    `json:"total_cents"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Package queue defines the messages the storefront publishes to the
// broker and the background consumer that records them. Downstream
// consumers get enough to log, notify or feed analytics without calling
// back into the storefront.
package queue

// Queue names. Durable queues on the default exchange, routing key equal
// to the queue name.
const (
	BookingConfirmedQueue = "storefront.booking.confirmed"
	SessionExpiredQueue   = "storefront.session.expired"
)

// BookingConfirmedEvent is published when a checkout completes.
type BookingConfirmedEvent struct {
	BookingID   string   `json:"booking_id"`
	SessionID   string   `json:"session_id"`
	UserID      uint64   `json:"user_id"`
	ConcertID   uint64   `json:"concert_id"`
	SeatIDs     []string `json:"seat_ids"`
	SeatLabels  []string `json:"seats"`
	TotalCents  uint32   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// SessionExpiredEvent is published when a reservation countdown reaches
// zero with seats still held. The seats listed here were force-cleared
// client-side; the booking service reconciles its own holds by TTL.
type SessionExpiredEvent struct {
	SessionID string   `json:"session_id"`
	UserID    uint64   `json:"user_id"`
	ConcertID uint64   `json:"concert_id"`
	SeatIDs   []string `json:"seat_ids"`
	ExpiredAt string   `json:"expired_at"`
}

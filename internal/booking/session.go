// Package booking holds the client-side reservation session: the set of
// seats the user is holding, the countdown that time-boxes those holds,
// and the state machine that gates checkout. The session mirrors the
// server-side holds but owns nothing durable; when it expires or closes,
// only the server's own expiry reconciles whatever was already sent.
package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream"
)

// Phase is the session's position in the reservation state machine.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"         // no seats held, clock stopped
	PhaseSelecting   Phase = "SELECTING"    // holds present, clock running
	PhaseExpiring    Phase = "EXPIRING"     // selecting, under the warning threshold
	PhaseCheckingOut Phase = "CHECKING_OUT" // checkout in flight, mutations locked
	PhaseExpired     Phase = "EXPIRED"      // terminal; a new session must be created
)

// EventType labels session notifications pushed to listeners.
type EventType string

const (
	EventSeatsUpdated      EventType = "seats_updated"
	EventCountdown         EventType = "countdown"
	EventExpiringSoon      EventType = "expiring_soon"
	EventExpired           EventType = "expired"
	EventCheckoutFailed    EventType = "checkout_failed"
	EventCheckoutSucceeded EventType = "checkout_succeeded"
)

// Event is one session notification. SeatIDs is a snapshot, safe to keep.
type Event struct {
	Type             EventType
	SessionID        string
	UserID           uint64
	ConcertID        uint64
	Phase            Phase
	RemainingSeconds int
	SeatIDs          []string
	SeatLabels       []string
	TotalCents       uint32
	BookingID        string
}

// Listener receives session events. Called without the session lock held;
// implementations may call back into the session.
type Listener func(Event)

// Config carries the tunable constants of a session. Pricing is
// configuration, not derived: unit price times held-seat count plus a
// fixed service fee.
type Config struct {
	HoldSeconds     int
	WarnSeconds     int
	UnitPriceCents  uint32
	ServiceFeeCents uint32
	TickInterval    time.Duration
}

// Session is the reservation session for one user and concert. All state
// transitions happen under one lock; the countdown goroutine is the only
// non-user-triggered mutator and is stopped on every exit path.
type Session struct {
	ID        string
	UserID    uint64
	ConcertID uint64

	api      upstream.API
	cfg      Config
	listener Listener

	mu        sync.Mutex
	holds     map[string]model.SeatHold
	order     []string // seat ids in selection order
	remaining int
	phase     Phase
	closed    bool

	stop     chan struct{}
	stopOnce sync.Once
	running  bool
}

// NewSession creates an idle session. The countdown does not start until
// the first seat is held.
func NewSession(userID, concertID uint64, api upstream.API, cfg Config, listener Listener) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.WarnSeconds <= 0 {
		cfg.WarnSeconds = 60
	}
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ConcertID: concertID,
		api:       api,
		cfg:       cfg,
		listener:  listener,
		holds:     make(map[string]model.SeatHold),
		remaining: cfg.HoldSeconds,
		phase:     PhaseIdle,
		stop:      make(chan struct{}),
	}
}

// Snapshot is the session read model.
type Snapshot struct {
	SessionID        string
	ConcertID        uint64
	Phase            Phase
	RemainingSeconds int
	Holds            []model.SeatHold
	TotalCents       uint32
	ExpiringSoon     bool
}

// CanCheckout reports whether BeginCheckout would be accepted.
func (s Snapshot) CanCheckout() bool {
	return len(s.Holds) > 0 && (s.Phase == PhaseSelecting || s.Phase == PhaseExpiring)
}

// Snapshot returns the current state with holds in selection order.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	holds := make([]model.SeatHold, 0, len(s.order))
	for _, id := range s.order {
		holds = append(holds, s.holds[id])
	}
	return Snapshot{
		SessionID:        s.ID,
		ConcertID:        s.ConcertID,
		Phase:            s.phase,
		RemainingSeconds: s.remaining,
		Holds:            holds,
		TotalCents:       s.totalLocked(),
		ExpiringSoon:     s.phase == PhaseExpiring,
	}
}

// totalLocked prices the current hold set. An empty cart costs nothing;
// the service fee applies only when there is something to buy.
func (s *Session) totalLocked() uint32 {
	n := uint32(len(s.holds))
	if n == 0 {
		return 0
	}
	return s.cfg.UnitPriceCents*n + s.cfg.ServiceFeeCents
}

// SelectSeat adds a seat to the hold set. The first hold starts the
// countdown; later mutations never reset it. Selecting a seat that is
// already held is a no-op. Rejected while a checkout is in flight and
// after expiry.
func (s *Session) SelectSeat(seatID, seatLabel string) error {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if seatID == "" {
		s.mu.Unlock()
		return fault.New(fault.InvalidInput, "seat id is required")
	}
	if _, held := s.holds[seatID]; held {
		s.mu.Unlock()
		return nil
	}
	s.holds[seatID] = model.SeatHold{SeatID: seatID, SeatLabel: seatLabel, HeldAt: time.Now().UTC()}
	s.order = append(s.order, seatID)
	if s.phase == PhaseIdle {
		s.phase = PhaseSelecting
		s.remaining = s.cfg.HoldSeconds
		s.startClockLocked()
	}
	ev := s.eventLocked(EventSeatsUpdated)
	s.mu.Unlock()
	s.emit(ev)
	return nil
}

// DeselectSeat removes one held seat. Removing a seat that is not held is
// a no-op. Rejected while a checkout is in flight, so a checkout can
// never race against a hold mutation. Emptying the hold set returns the
// session to Idle and stops the clock.
func (s *Session) DeselectSeat(seatID string) error {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, held := s.holds[seatID]; !held {
		s.mu.Unlock()
		return nil
	}
	delete(s.holds, seatID)
	for i, id := range s.order {
		if id == seatID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if len(s.holds) == 0 {
		s.toIdleLocked()
	}
	ev := s.eventLocked(EventSeatsUpdated)
	s.mu.Unlock()
	s.emit(ev)
	return nil
}

// ClearSeats drops every hold and returns the session to Idle. Rejected
// while a checkout is in flight and after expiry.
func (s *Session) ClearSeats() error {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if len(s.holds) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.holds = make(map[string]model.SeatHold)
	s.order = nil
	s.toIdleLocked()
	ev := s.eventLocked(EventSeatsUpdated)
	s.mu.Unlock()
	s.emit(ev)
	return nil
}

// mutableLocked guards hold mutations against the phases that forbid them.
func (s *Session) mutableLocked() error {
	switch s.phase {
	case PhaseCheckingOut:
		return fault.New(fault.InvalidInput, "checkout in progress, seats are locked")
	case PhaseExpired:
		return fault.New(fault.SessionExpired, "your seat reservation has expired")
	}
	if s.closed {
		return fault.New(fault.SessionExpired, "session is closed")
	}
	return nil
}

// BeginCheckout submits the held seats for payment. Permitted only with a
// non-empty hold set; further hold mutation is locked until the checkout
// resolves. The countdown keeps running: the hold, not the checkout UI,
// is time-boxed. On payment failure the holds and the remaining time are
// preserved so the user may retry; on success the holds are cleared and
// the session torn down.
func (s *Session) BeginCheckout(ctx context.Context, payment model.PaymentDetails) (*model.BookingConfirmation, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, fault.New(fault.SessionExpired, "session is closed")
	case s.phase == PhaseExpired:
		s.mu.Unlock()
		return nil, fault.New(fault.SessionExpired, "your seat reservation has expired")
	case s.phase == PhaseCheckingOut:
		s.mu.Unlock()
		return nil, fault.New(fault.InvalidInput, "checkout already in progress")
	case len(s.holds) == 0:
		s.mu.Unlock()
		return nil, fault.New(fault.InvalidInput, "no seats selected")
	}
	s.phase = PhaseCheckingOut
	seatIDs := append([]string(nil), s.order...)
	s.mu.Unlock()

	conf, err := s.api.CreateBooking(ctx, seatIDs, payment)

	s.mu.Lock()
	if err != nil {
		fe := fault.From(err)
		if s.phase == PhaseExpired {
			// The clock ran out while the payment was in flight and the
			// failed attempt has nothing left to retry against.
			s.mu.Unlock()
			return nil, fault.New(fault.SessionExpired, "your seat reservation expired during checkout")
		}
		// Holds stay intact and the countdown continues from wherever it
		// was; the user retries on the same screen.
		s.phase = s.selectingPhaseLocked()
		ev := s.eventLocked(EventCheckoutFailed)
		s.mu.Unlock()
		s.emit(ev)
		if fe.Kind == fault.Cancelled || fe.Kind == fault.CheckoutRejected {
			return nil, fe
		}
		return nil, fault.Wrap(fault.CheckoutRejected, fe.Message, fe)
	}

	// The server confirmed the booking; its word beats a local expiry
	// that may have fired while the call was in flight. Build the event
	// before clearing so the seat labels survive into it.
	ev := s.eventLocked(EventCheckoutSucceeded)
	ev.BookingID = conf.BookingID
	ev.SeatIDs = append([]string(nil), conf.SeatIDs...)
	ev.TotalCents = conf.TotalCents
	s.holds = make(map[string]model.SeatHold)
	s.order = nil
	s.closed = true
	s.stopClock()
	s.mu.Unlock()
	s.emit(ev)
	return conf, nil
}

// selectingPhaseLocked picks Selecting or Expiring based on remaining time.
func (s *Session) selectingPhaseLocked() Phase {
	if s.remaining <= s.cfg.WarnSeconds {
		return PhaseExpiring
	}
	return PhaseSelecting
}

// Close tears the session down and stops the countdown goroutine. Safe to
// call multiple times and required on every exit path: success, expiry,
// cancellation or page unmount.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stopClock()
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// startClockLocked launches the countdown goroutine once. The goroutine
// exits when the stop channel closes; stopClock is idempotent.
func (s *Session) startClockLocked() {
	if s.running {
		return
	}
	s.running = true
	interval := s.cfg.TickInterval
	stop := s.stop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopClock() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// toIdleLocked stops the clock and resets the window. Only reached when
// the hold set is empty; the Idle invariant is "no seats held, timer not
// running".
func (s *Session) toIdleLocked() {
	s.phase = PhaseIdle
	s.remaining = s.cfg.HoldSeconds
	s.stopClock()
	// A fresh stop channel so a later first hold can restart the clock.
	s.stop = make(chan struct{})
	s.stopOnce = sync.Once{}
	s.running = false
}

// Tick advances the countdown by one second. Driven by the ticker in
// production and called directly by tests. Ticks are ignored outside the
// running phases, and the expiry transition happens exactly once no
// matter how many ticks fire afterwards.
func (s *Session) Tick() {
	s.mu.Lock()
	switch s.phase {
	case PhaseSelecting, PhaseExpiring, PhaseCheckingOut:
	default:
		s.mu.Unlock()
		return
	}
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}

	var events []Event
	if s.phase == PhaseSelecting && s.remaining <= s.cfg.WarnSeconds {
		// Warning flag only; holds and checkout behave as in Selecting.
		s.phase = PhaseExpiring
		events = append(events, s.eventLocked(EventExpiringSoon))
	}
	if s.remaining == 0 && s.phase != PhaseExpired {
		if len(s.holds) > 0 {
			expired := s.eventLocked(EventExpired)
			expired.SeatIDs = append([]string(nil), s.order...)
			s.holds = make(map[string]model.SeatHold)
			s.order = nil
			s.phase = PhaseExpired
			s.stopClock()
			events = append(events, expired)
		} else {
			s.toIdleLocked()
		}
	} else {
		events = append(events, s.eventLocked(EventCountdown))
	}
	s.mu.Unlock()
	for _, ev := range events {
		s.emit(ev)
	}
}

// eventLocked builds an event from current state.
func (s *Session) eventLocked(t EventType) Event {
	seatIDs := append([]string(nil), s.order...)
	labels := make([]string, 0, len(s.order))
	for _, id := range s.order {
		labels = append(labels, s.holds[id].SeatLabel)
	}
	return Event{
		Type:             t,
		SessionID:        s.ID,
		UserID:           s.UserID,
		ConcertID:        s.ConcertID,
		Phase:            s.phase,
		RemainingSeconds: s.remaining,
		SeatIDs:          seatIDs,
		SeatLabels:       labels,
		TotalCents:       s.totalLocked(),
	}
}

func (s *Session) emit(ev Event) {
	if s.listener != nil {
		s.listener(ev)
	}
}

package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/storefront/internal/fault"
	"github.com/stagepass/storefront/internal/model"
	"github.com/stagepass/storefront/internal/upstream/mocks"
)

// testConfig keeps the ticker effectively off so tests drive Tick directly.
func testConfig() Config {
	return Config{
		HoldSeconds:     300,
		WarnSeconds:     60,
		UnitPriceCents:  4500,
		ServiceFeeCents: 350,
		TickInterval:    time.Hour,
	}
}

func newTestSession(api *mocks.MockAPI) *Session {
	return NewSession(1, 7, api, testConfig(), nil)
}

func TestSelectSeatStartsCountdownOnce(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	require.Equal(t, PhaseIdle, s.Snapshot().Phase)
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))

	snap := s.Snapshot()
	assert.Equal(t, PhaseSelecting, snap.Phase)
	assert.Equal(t, 300, snap.RemainingSeconds)
	require.Len(t, snap.Holds, 1)

	// Burn some time, then add another seat: the clock must not reset.
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	require.NoError(t, s.SelectSeat("A2", "Row A Seat 2"))
	snap = s.Snapshot()
	assert.Equal(t, 290, snap.RemainingSeconds)
	assert.Len(t, snap.Holds, 2)
}

func TestSelectSeatDuplicateIsNoOp(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	assert.Len(t, s.Snapshot().Holds, 1)
}

func TestDeselectLastSeatReturnsToIdle(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	require.NoError(t, s.DeselectSeat("A1"))

	// Idle means the window is reset and ticks are ignored.
	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 300, snap.RemainingSeconds)
	s.Tick()
	assert.Equal(t, 300, s.Snapshot().RemainingSeconds)

	// A fresh hold restarts the full window.
	require.NoError(t, s.SelectSeat("B1", "Row B Seat 1"))
	assert.Equal(t, PhaseSelecting, s.Snapshot().Phase)
}

func TestDeselectUnknownSeatIsNoOp(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	require.NoError(t, s.DeselectSeat("Z9"))
	assert.Len(t, s.Snapshot().Holds, 1)
}

func TestPricing(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	assert.Equal(t, uint32(0), s.Snapshot().TotalCents)
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	assert.Equal(t, uint32(4500+350), s.Snapshot().TotalCents)
	require.NoError(t, s.SelectSeat("A2", "Row A Seat 2"))
	assert.Equal(t, uint32(2*4500+350), s.Snapshot().TotalCents)
	require.NoError(t, s.ClearSeats())
	assert.Equal(t, uint32(0), s.Snapshot().TotalCents)
}

func TestExpiringWarningThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.HoldSeconds = 62
	s := NewSession(1, 7, new(mocks.MockAPI), cfg, nil)
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	s.Tick() // 61
	assert.Equal(t, PhaseSelecting, s.Snapshot().Phase)
	s.Tick() // 60, at the threshold
	snap := s.Snapshot()
	assert.Equal(t, PhaseExpiring, snap.Phase)
	assert.True(t, snap.ExpiringSoon)
	assert.True(t, snap.CanCheckout(), "expiring is a warning, not a lockout")
}

func TestExpiryIsIdempotent(t *testing.T) {
	cfg := testConfig()
	cfg.HoldSeconds = 2
	cfg.WarnSeconds = 1
	var mu sync.Mutex
	var expired int
	listener := func(ev Event) {
		if ev.Type == EventExpired {
			mu.Lock()
			expired++
			mu.Unlock()
		}
	}
	s := NewSession(1, 7, new(mocks.MockAPI), cfg, listener)
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	for i := 0; i < 5; i++ {
		s.Tick()
	}

	snap := s.Snapshot()
	assert.Equal(t, PhaseExpired, snap.Phase)
	assert.Empty(t, snap.Holds, "expiry force-clears the holds")
	assert.False(t, snap.CanCheckout())
	mu.Lock()
	assert.Equal(t, 1, expired, "the expiry transition fires exactly once")
	mu.Unlock()
}

func TestMutationsRejectedAfterExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.HoldSeconds = 1
	s := NewSession(1, 7, new(mocks.MockAPI), cfg, nil)
	defer s.Close()

	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	s.Tick()
	require.Equal(t, PhaseExpired, s.Snapshot().Phase)

	err := s.SelectSeat("A2", "Row A Seat 2")
	require.Error(t, err)
	assert.Equal(t, fault.SessionExpired, fault.KindOf(err))

	_, err = s.BeginCheckout(context.Background(), model.PaymentDetails{})
	require.Error(t, err)
	assert.Equal(t, fault.SessionExpired, fault.KindOf(err))
}

func TestBeginCheckoutRequiresHolds(t *testing.T) {
	s := newTestSession(new(mocks.MockAPI))
	defer s.Close()

	_, err := s.BeginCheckout(context.Background(), model.PaymentDetails{})
	require.Error(t, err)
	assert.Equal(t, fault.InvalidInput, fault.KindOf(err))
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestCheckoutLocksHoldMutations(t *testing.T) {
	api := new(mocks.MockAPI)
	started := make(chan struct{})
	release := make(chan struct{})
	api.On("CreateBooking", mock.Anything, []string{"A1", "A2"}, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&model.BookingConfirmation{BookingID: "bk-1", SeatIDs: []string{"A1", "A2"}, TotalCents: 9350}, nil)

	s := newTestSession(api)
	defer s.Close()
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	require.NoError(t, s.SelectSeat("A2", "Row A Seat 2"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.BeginCheckout(context.Background(), model.PaymentDetails{Method: "card"})
	}()
	<-started

	// While the payment is in flight every hold mutation is rejected and
	// the hold set stays intact.
	err := s.DeselectSeat("A1")
	require.Error(t, err)
	assert.Equal(t, fault.InvalidInput, fault.KindOf(err))
	require.Error(t, s.ClearSeats())
	require.Error(t, s.SelectSeat("A3", "Row A Seat 3"))
	assert.Len(t, s.Snapshot().Holds, 2)

	close(release)
	<-done
}

func TestCheckoutFailurePreservesHoldsAndCountdown(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("CreateBooking", mock.Anything, []string{"A1"}, mock.Anything).
		Return(nil, fault.New(fault.CheckoutRejected, "payment was declined"))

	s := newTestSession(api)
	defer s.Close()
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))
	for i := 0; i < 10; i++ {
		s.Tick()
	}

	_, err := s.BeginCheckout(context.Background(), model.PaymentDetails{Method: "card"})
	require.Error(t, err)
	assert.Equal(t, fault.CheckoutRejected, fault.KindOf(err))

	// Retry stays possible: same seats, countdown continues where it was.
	snap := s.Snapshot()
	assert.Equal(t, PhaseSelecting, snap.Phase)
	assert.Len(t, snap.Holds, 1)
	assert.Equal(t, 290, snap.RemainingSeconds)
	assert.True(t, snap.CanCheckout())
}

func TestCheckoutSuccessClosesSession(t *testing.T) {
	api := new(mocks.MockAPI)
	conf := &model.BookingConfirmation{
		BookingID:  "bk-7",
		ConcertID:  7,
		SeatIDs:    []string{"A1"},
		TotalCents: 4850,
	}
	api.On("CreateBooking", mock.Anything, []string{"A1"}, mock.Anything).Return(conf, nil)

	var mu sync.Mutex
	var succeeded *Event
	listener := func(ev Event) {
		if ev.Type == EventCheckoutSucceeded {
			mu.Lock()
			cp := ev
			succeeded = &cp
			mu.Unlock()
		}
	}
	s := NewSession(1, 7, api, testConfig(), listener)
	defer s.Close()
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))

	got, err := s.BeginCheckout(context.Background(), model.PaymentDetails{Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, "bk-7", got.BookingID)
	assert.True(t, s.Closed())
	assert.Empty(t, s.Snapshot().Holds)

	mu.Lock()
	require.NotNil(t, succeeded)
	assert.Equal(t, "bk-7", succeeded.BookingID)
	assert.Equal(t, []string{"A1"}, succeeded.SeatIDs)
	mu.Unlock()
}

func TestCheckoutFailureWrapsUnclassifiedErrors(t *testing.T) {
	api := new(mocks.MockAPI)
	api.On("CreateBooking", mock.Anything, []string{"A1"}, mock.Anything).
		Return(nil, errors.New("connection reset"))

	s := newTestSession(api)
	defer s.Close()
	require.NoError(t, s.SelectSeat("A1", "Row A Seat 1"))

	_, err := s.BeginCheckout(context.Background(), model.PaymentDetails{})
	require.Error(t, err)
	assert.Equal(t, fault.CheckoutRejected, fault.KindOf(err))
}

func TestRegistryOneSessionPerUser(t *testing.T) {
	api := new(mocks.MockAPI)
	r := NewRegistry(api, testConfig(), nil)
	defer r.CloseAll()

	s1 := r.Begin(1, 7)
	require.NoError(t, s1.SelectSeat("A1", "Row A Seat 1"))

	// Same concert reuses the live session.
	assert.Same(t, s1, r.Begin(1, 7))

	// A different concert replaces it, closing the old one.
	s2 := r.Begin(1, 8)
	assert.NotSame(t, s1, s2)
	assert.True(t, s1.Closed())
	assert.Equal(t, uint64(8), s2.ConcertID)

	r.End(1)
	assert.Nil(t, r.Get(1))
	assert.True(t, s2.Closed())
	r.End(1) // idempotent
}

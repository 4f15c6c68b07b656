package booking

import (
	"sync"

	"github.com/stagepass/storefront/internal/upstream"
)

// ListenerFactory builds the event listener wired into each new session.
// Injected so the registry stays ignorant of hubs and message brokers.
type ListenerFactory func(userID uint64) Listener

// Registry enforces the one-active-session-per-user policy. Beginning a
// session for a user closes any previous one first, so two sessions can
// never hold seats concurrently for the same user in this layer.
type Registry struct {
	api     upstream.API
	cfg     Config
	factory ListenerFactory

	mu       sync.Mutex
	sessions map[uint64]*Session
}

// NewRegistry returns an empty registry. factory may be nil for sessions
// without listeners (tests).
func NewRegistry(api upstream.API, cfg Config, factory ListenerFactory) *Registry {
	return &Registry{
		api:      api,
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[uint64]*Session),
	}
}

// Get returns the user's live session, or nil. Expired and closed
// sessions count as gone: the caller must begin a new one to resume.
func (r *Registry) Get(userID uint64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Begin returns the user's session for the given concert, creating it if
// needed. A live session for a different concert, or one that already
// expired or closed, is torn down and replaced.
func (r *Registry) Begin(userID, concertID uint64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.sessions[userID]; s != nil {
		snap := s.Snapshot()
		if s.ConcertID == concertID && snap.Phase != PhaseExpired && !s.Closed() {
			return s
		}
		s.Close()
	}
	var listener Listener
	if r.factory != nil {
		listener = r.factory(userID)
	}
	s := NewSession(userID, concertID, r.api, r.cfg, listener)
	r.sessions[userID] = s
	return s
}

// End tears down and forgets the user's session. Safe when none exists.
func (r *Registry) End(userID uint64) {
	r.mu.Lock()
	s := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// CloseAll tears down every session. Used on server shutdown so no
// countdown goroutine outlives the process's serving loop.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[uint64]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

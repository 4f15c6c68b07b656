// Package notify is the toast/notification store. It is an explicitly
// owned dependency injected into the handlers that raise notifications
// and the single view that renders them; nothing here is a process-wide
// singleton, which keeps the storefront testable without a UI tree.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the visual severity of a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is one active notification.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds the active toasts in display order.
type Store struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Add appends a toast and returns it.
func (s *Store) Add(level Level, message string) Toast {
	t := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.toasts = append(s.toasts, t)
	s.mu.Unlock()
	return t
}

// Remove drops the toast with the given id, reporting whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every active toast.
func (s *Store) Clear() {
	s.mu.Lock()
	s.toasts = nil
	s.mu.Unlock()
}

// List returns the active toasts in display order.
func (s *Store) List() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

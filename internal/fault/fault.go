// Package fault defines the error vocabulary shared by controllers, the
// reservation session and HTTP handlers. Handlers translate kinds into
// HTTP statuses; controllers use them to decide whether a failure is shown
// to the user, degraded to a placeholder, or dropped silently.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure by how the storefront must react to it.
type Kind int

const (
	// InvalidInput is rejected locally without a network call and never
	// escalates past the controller that detected it.
	InvalidInput Kind = iota
	// Cancelled marks a superseded or torn-down request. It is dropped
	// silently and must never reach the user.
	Cancelled
	// NetworkFailure covers transport-level problems reaching the
	// upstream services.
	NetworkFailure
	// ServerFailure covers upstream responses that indicate the service
	// itself failed.
	ServerFailure
	// PartialFailure marks a secondary resource that failed while the
	// primary content stayed usable; rendered as a placeholder.
	PartialFailure
	// SessionExpired signals that the reservation countdown reached zero
	// and the holds were force-cleared.
	SessionExpired
	// CheckoutRejected is a payment-side failure; holds stay intact and
	// the user may retry.
	CheckoutRejected
)

// Error pairs a Kind with a user-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// From normalizes an arbitrary error into *Error. Context cancellation and
// deadline expiry become Cancelled; anything unclassified is treated as a
// network failure with a generic user message.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(Cancelled, "request cancelled", err)
	}
	return Wrap(NetworkFailure, "something went wrong, please try again", err)
}

// IsCancelled reports whether err resolves to a cancellation, either as a
// classified Error or a raw context error.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return From(err).Kind == Cancelled
}

// KindOf returns the kind of a classified error, or NetworkFailure when
// the error carries no classification.
func KindOf(err error) Kind {
	return From(err).Kind
}

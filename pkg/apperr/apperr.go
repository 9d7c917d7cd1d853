// Package apperr defines the application error taxonomy shared by services
// and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal is a store or unexpected failure.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input, rejected before side effects.
	KindValidation
	// KindNotFound is a referenced entity that does not exist.
	KindNotFound
	// KindConflict is a duplicate registration or similar uniqueness violation.
	KindConflict
	// KindCapacity is a webinar at max participants.
	KindCapacity
	// KindAuthentication is a bad credential or webhook signature.
	KindAuthentication
	// KindForbidden is an authenticated caller acting on a resource it does not own.
	KindForbidden
	// KindUpstream is a gateway, calendar or mail provider failure.
	KindUpstream
)

// Error carries a kind, a human-readable message and, for validation
// failures, the offending fields.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error listing the offending fields.
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

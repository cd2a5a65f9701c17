package service

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so the API layer can map it to a status
// code and callers can tell "fix your input" apart from "retry later".
type Kind int

const (
	// KindInternal covers persistence and other unexpected failures.
	KindInternal Kind = iota
	// KindInvalidInput covers missing or malformed request fields.
	KindInvalidInput
	// KindNotFound covers absent entities and empty carts.
	KindNotFound
	// KindAlreadyExists covers uniqueness conflicts on creation.
	KindAlreadyExists
	// KindForbidden covers ownership and role violations.
	KindForbidden
	// KindConflict covers state conflicts: insufficient stock,
	// rejected status transitions.
	KindConflict
)

// Error is a classified domain failure.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func alreadyExists(format string, args ...interface{}) error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to KindInternal for
// unclassified (persistence, driver) failures.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

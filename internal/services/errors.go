package services

import (
	"errors"
	"fmt"

	"zugzwang/internal/store"
)

// Kind classifies engine errors; handlers map kinds onto HTTP statuses.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "INVALID_INPUT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Origin  error // Original error that caused this error, if any
}

func (e *Error) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Origin
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "authentication required"}
}

// KindOf returns the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, store.ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// notFoundOr converts store.ErrNotFound into a NotFound error for what and wraps the rest.
func notFoundOr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// Fixed messages shared by posts and comments.
const (
	msgNothingToUpdate = "nothing to update"
	msgLocked          = "content is locked, unlock it first"
	msgAlreadyLocked   = "content is already locked"
	msgUnlockSeparate  = "unlock first, then edit in a separate request"
	msgNotAuthor       = "only the author may edit this content"
	msgAdminOnly       = "admin only"
)

package core

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the subscription check.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindProvider         Kind = "provider_error"
	KindInternal         Kind = "internal_error"
)

// Error carries a Kind plus an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind so that errors.Is(err, ErrUnauthenticated) holds for any
// unauthenticated error regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated, Message: "no authenticated session"}
	ErrMethodNotAllowed = &Error{Kind: KindMethodNotAllowed, Message: "method not allowed"}
)

// NewUnauthenticated wraps cause as an unauthenticated error.
func NewUnauthenticated(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Cause: cause}
}

// NewProviderError reports an unreachable or misbehaving identity provider.
func NewProviderError(msg string, cause error) *Error {
	return &Error{Kind: KindProvider, Message: msg, Cause: cause}
}

// NewInternalError reports anything unexpected.
func NewInternalError(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsUnauthenticated(err error) bool { return err != nil && KindOf(err) == KindUnauthenticated }
func IsProviderError(err error) bool   { return err != nil && KindOf(err) == KindProvider }

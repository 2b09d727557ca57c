// Package auth implements "Login with Google": code exchange, profile lookup,
// calendar list persistence and get-or-create of the user record.
package auth

import (
	"errors"

	"github.com/gyeo009/lookback-Backend/internal/google"
)

// Kind classifies a login failure for the HTTP boundary.
type Kind int

const (
	// KindInternal is any failure not caused by Google rejecting the login.
	KindInternal Kind = iota
	// KindUpstream means the token exchange or profile fetch failed.
	KindUpstream
)

func (k Kind) String() string {
	if k == KindUpstream {
		return "upstream"
	}
	return "internal"
}

// Error is returned by Service.Login.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, KindInternal unless err wraps an upstream *Error.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindInternal
}

// classify wraps a Google client error. Typed Google errors are upstream
// failures; anything else (a malformed profile) is internal.
func classify(err error) *Error {
	var gerr *google.Error
	if errors.As(err, &gerr) {
		return &Error{Kind: KindUpstream, Err: err}
	}
	return &Error{Kind: KindInternal, Err: err}
}

// Package graft carries the error-kind taxonomy shared across every
// component of the reseed pipeline. Components return *Error (or wrap into
// one at their boundary) instead of ad hoc error strings so that retry
// policy and per-match history status can be decided from the kind alone.
package graft

import (
	"errors"
	"fmt"
)

// Kind enumerates the terminal/retryable error classes defined by the
// reseed pipeline's error handling design.
type Kind string

const (
	KindConfig            Kind = "config"
	KindAuthFailed        Kind = "auth_failed"
	KindUnreachable       Kind = "unreachable"
	KindRateLimited       Kind = "rate_limited"
	KindNotFound          Kind = "not_found"
	KindMalformedTorrent  Kind = "malformed_torrent"
	KindAddFailed         Kind = "add_failed"
	KindIndexIO           Kind = "index_io"
	KindCancelled         Kind = "cancelled"
)

// Error is the carrier type returned across component boundaries.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, &graft.Error{Kind: graft.KindNotFound}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an *Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind carried by err, if any, returning ok=false for
// plain errors that never crossed a component boundary as a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Retryable reports whether the error's kind is one the executor's retry
// policy should retry (Unreachable, RateLimited) rather than treat as
// terminal for the match.
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindUnreachable || kind == KindRateLimited
}

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrPresentationNotFound is returned when a continuity token does not
	// resolve to a live presentation context.
	ErrPresentationNotFound = errors.New("presentation not found")

	// ErrDeckNotReady is returned when a theme operation is attempted before
	// any slide has been generated for the presentation.
	ErrDeckNotReady = errors.New("deck not ready: generate at least one slide first")
)

// RemoteError is a non-2xx answer (or transport failure) from the remote
// slide service.  Op is one of "generate", "search", "apply-theme".
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Retryable  bool
	Cause      error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("slidesgpt %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	if e.Cause != nil {
		return fmt.Sprintf("slidesgpt %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("slidesgpt %s failed", e.Op)
}

func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ValidationError is a tool-argument shape failure, raised before any
// registry or remote interaction happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

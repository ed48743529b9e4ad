package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by session-scoped operations when no session is active.
	ErrNoSession = errors.New("no active session")

	// ErrNotConfirmed is returned when a destructive action was not confirmed.
	ErrNotConfirmed = errors.New("action not confirmed")

	// ErrUnsupportedMedia marks a view request the pane cannot display.
	// It is used for filtering only and never shown to the user.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// TransportError represents a failed request to the backend
type TransportError struct {
	Op     string // "list assets", "delete session", ...
	URL    string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: %s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PayloadError represents a server-push event whose payload could not be decoded
type PayloadError struct {
	Event string
	Err   error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload error [%s]: %v", e.Event, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// TimecodeError represents text that is not a valid timecode
type TimecodeError struct {
	Text string
	Err  error
}

func (e *TimecodeError) Error() string {
	return fmt.Sprintf("invalid timecode %q: %v", e.Text, e.Err)
}

func (e *TimecodeError) Unwrap() error {
	return e.Err
}

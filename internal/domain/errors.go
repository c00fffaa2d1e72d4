package domain

import (
	"fmt"
	"time"
)

// ValidationError reports a missing or malformed identifier detected before
// any network call is attempted. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RerunRejectedError means CI or the backend explicitly refused the rerun.
// Reason carries the server-supplied message and is surfaced verbatim.
type RerunRejectedError struct {
	Reason string
}

func (e *RerunRejectedError) Error() string {
	if e.Reason == "" {
		return "rerun rejected by the system"
	}
	return e.Reason
}

// ProtocolError means a successful response lacked an expected field.
type ProtocolError struct {
	Missing string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("response missing %s", e.Missing)
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError means an action referenced a record that turned out to be absent.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError rejects an operation that would clash with one in flight.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// TimeoutError means polling exceeded the configured deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gave up waiting after %s", e.After)
}

// UnknownStatusError rejects a backend value outside a closed enumeration.
type UnknownStatusError struct {
	Kind string
	Raw  string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Raw)
}

// RemoteError carries a non-success response from a collaborator whose
// message should be shown to the user when present.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.StatusCode)
	}
	return e.Message
}

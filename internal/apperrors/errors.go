// Package apperrors defines the error taxonomy shared by every engine
// component. Handlers map these onto HTTP statuses; services return them
// untouched so callers can branch with errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the addressed deal, document or message
// does not exist (or was already deleted).
var ErrNotFound = errors.New("not found")

// ValidationError marks malformed caller input. Not retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PermissionError marks an actor that is not authorized for the
// requested mutation. Not retryable.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

func Permission(format string, args ...any) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError marks an illegal status edge. It carries the
// attempted edge so the caller can show the specific reason.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %q -> %q", e.From, e.To)
}

// PayloadTooLargeError carries the exact ceiling that was exceeded.
type PayloadTooLargeError struct {
	Limit int64
	Size  int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds the %d byte limit", e.Size, e.Limit)
}

// EmptyMessageError is returned when a chat message has a blank body and
// no accompanying attachment.
var EmptyMessageError = errors.New("message body is empty")

// StorageError marks durable-store unavailability. Retryable by the
// caller; the engine never retries writes itself to avoid duplicating
// activity entries.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage unavailable: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func Storage(err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Err: err}
}

// IsRetryable reports whether the error is infrastructure-level and may
// be retried with backoff.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

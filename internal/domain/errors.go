package domain

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress is returned when a sync cycle is requested while another
// one is still running. Informational; the caller should not retry blindly.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrNotFound is the sentinel wrapped by NotFoundError.
var ErrNotFound = errors.New("not found")

// ValidationError reports a field-level business rule violation on create or
// update. It is surfaced to the caller and never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation targeting a record that no longer
// exists. The record may have been deleted by a concurrent flow, so callers
// treat it as recoverable.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StorageUnavailableError reports that the durable store could not be opened
// and the system is running on the in-memory fallback. Persistence is
// degraded, not broken.
type StorageUnavailableError struct {
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("durable storage unavailable, running in-memory: %v", e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Cause }

// RemoteSyncError reports a failure talking to the remote task store. The
// affected records stay dirty or queued; the error is reported through the
// status channel and never crashes anything.
type RemoteSyncError struct {
	Backend string
	Op      string
	Cause   error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("remote sync %s via %s: %v", e.Op, e.Backend, e.Cause)
}

func (e *RemoteSyncError) Unwrap() error { return e.Cause }

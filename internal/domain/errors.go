package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrBlobNotFound   = errors.New("blob not found")
	ErrAlertNotFound  = errors.New("alert not found")
	ErrReportNotFound = errors.New("report not found")
)

// ValidationError rejects an input before any store write. It is never
// retried and is surfaced to the caller immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// TransientStoreError marks a store failure as retriable. Per-file operations
// retry these with backoff; they never abort a whole job.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}

// IsNotFound reports whether err means the target is already gone, which an
// idempotent delete treats as success.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrBlobNotFound) || errors.Is(err, ErrAlertNotFound) ||
		errors.Is(err, ErrReportNotFound)
}

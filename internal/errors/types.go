// Package errors classifies SDK failures so callers can decide whether to
// retry and which user-facing message a failure maps to.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors are retried with exponential backoff where the
	// operation is idempotent (500s, timeouts, connection failures).
	Recoverable ErrorCategory = iota

	// Irrecoverable errors fail immediately (400, 401, 403, 404 ...).
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Kind is the failure taxonomy surfaced to controllers.
type Kind int

const (
	// KindNetwork covers connectivity loss and any unexpected remote failure.
	KindNetwork Kind = iota
	// KindAuth is a rejected credential or duplicate account.
	KindAuth
	// KindValidation is a missing or malformed field caught before submission.
	KindValidation
	// KindMutation is a failed like/delete.
	KindMutation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindAuth:
		return "AuthError"
	case KindValidation:
		return "ValidationError"
	case KindMutation:
		return "MutationError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ClassifiedError wraps an error with categorization metadata.
type ClassifiedError struct {
	Category   ErrorCategory
	Kind       Kind
	StatusCode int    // 0 for non-HTTP errors
	Reason     string // "message" reported by the server, if any
	Field      string // offending field for validation errors
	Body       string
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Reason != "":
		return fmt.Sprintf("[%s/%s] HTTP %d: %v: %s", e.Kind, e.Category, e.StatusCode, e.Underlying, e.Reason)
	case e.StatusCode > 0:
		return fmt.Sprintf("[%s/%s] HTTP %d: %v", e.Kind, e.Category, e.StatusCode, e.Underlying)
	default:
		return fmt.Sprintf("[%s/%s] %v", e.Kind, e.Category, e.Underlying)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Category == Irrecoverable
	}
	return false
}

// ReasonOf returns the server-reported reason carried by err, or "".
func ReasonOf(err error) string {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

// KindOf returns the Kind of err. Unclassified errors count as network errors.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

// Is and As forward to the standard library so callers importing this
// package under its own name do not need a second errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

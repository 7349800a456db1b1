/*
errors.go - Centralized error types for the overtime workflow

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Callers classify errors with errors.Is against the sentinels below;
  the API layer maps them onto HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed submissions, unknown categories
  2. Authorization errors - wrong role, terminal request
  3. Store errors - missing records, lost concurrency races

USAGE:
  if errors.Is(err, overtime.ErrStateConflict) {
      // safe to re-fetch and retry
  }

SEE ALSO:
  - approval.go: Produces Forbidden errors
  - service.go: Produces validation errors
  - store.go: Store implementations produce NotFound/StateConflict
*/
package overtime

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of all validation failures. Wrapped by
	// ValidationError with the specific field at fault.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownCategory is returned when a category key is not in the
	// fixed catalog.
	ErrUnknownCategory = errors.New("unknown overtime category")

	// ErrForbidden is returned when an actor may not perform a
	// transition: wrong role, wrong slot, or the request is terminal.
	// Never retried automatically.
	ErrForbidden = errors.New("forbidden")

	// ErrStateConflict is returned when a concurrent writer resolved the
	// request first. Safe to retry after re-fetching current state.
	ErrStateConflict = errors.New("concurrent state conflict")

	// ErrNotFound is returned when a request id does not exist.
	ErrNotFound = errors.New("request not found")

	// ErrUserNotFound is returned when a NIK has no directory record.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateNik is returned when creating a user whose NIK is
	// already registered.
	ErrDuplicateNik = errors.New("nik already registered")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports the specific field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ForbiddenError explains why a transition was denied.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
// Only lost optimistic-concurrency races qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrDuplicateNik)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

/*
errors.go - Centralized error types for the lease engine

PURPOSE:
  All engine errors in one place. Callers branch with errors.Is; the
  structured types carry enough context to log a useful line without
  re-deriving it.

ERROR CATEGORIES:
  1. Input errors - incomplete filters, unsupported flag combinations
  2. Computation errors - bounded loops that ran out of budget
  3. Store errors - missing lease records

SEE ALSO:
  - escalation.go, schedule.go: wrap ErrComputationExhausted
  - result.go: returns ErrFiltersIncomplete
*/
package lease

import (
	"errors"
	"fmt"

	"github.com/warp/lease-engine/finance"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrComputationExhausted is returned when a bounded search loop
	// (escalation brackets, the day walk, the rate back-solve) hits its
	// iteration ceiling without converging. Always indicates malformed
	// lease terms rather than an engine fault.
	ErrComputationExhausted = errors.New("computation budget exhausted")

	// ErrFiltersIncomplete is returned when the reporting window is
	// missing its opening or closing date.
	ErrFiltersIncomplete = errors.New("filters incomplete: opening and closing dates required")

	// ErrUnsupportedConfiguration is returned for flag combinations the
	// legacy workbook never resolved, rather than guessing at semantics.
	ErrUnsupportedConfiguration = errors.New("unsupported lease configuration")

	// ErrLeaseNotFound is returned when a referenced lease record
	// doesn't exist.
	ErrLeaseNotFound = errors.New("lease not found")

	// ErrEmptySchedule is returned when a lease has no anchor dates to
	// build a schedule from.
	ErrEmptySchedule = errors.New("schedule has no rows")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ExhaustedError reports which bounded loop gave up and after how many
// iterations.
type ExhaustedError struct {
	Stage      string // "escalation", "day-walk", "rate-solve", "rental-advance"
	Iterations int
	LeaseID    int64
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s exhausted after %d iterations (lease %d)", e.Stage, e.Iterations, e.LeaseID)
}

func (e *ExhaustedError) Unwrap() error { return ErrComputationExhausted }

// UnsupportedConfigError names the flag combination that has no defined
// semantics.
type UnsupportedConfigError struct {
	LeaseID int64
	Reason  string
}

func (e *UnsupportedConfigError) Error() string {
	return fmt.Sprintf("unsupported configuration on lease %d: %s", e.LeaseID, e.Reason)
}

func (e *UnsupportedConfigError) Unwrap() error { return ErrUnsupportedConfiguration }

// LeaseFailure wraps a per-lease error inside bulk processing so the
// batch can report which lease was skipped and keep going.
type LeaseFailure struct {
	LeaseID int64
	Date    finance.Date
	Err     error
}

func (e *LeaseFailure) Error() string {
	return fmt.Sprintf("lease %d failed: %v", e.LeaseID, e.Err)
}

func (e *LeaseFailure) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's input rather
// than an engine fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrFiltersIncomplete) ||
		errors.Is(err, ErrUnsupportedConfiguration) ||
		errors.Is(err, ErrComputationExhausted)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeaseNotFound)
}

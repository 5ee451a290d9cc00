/*
errors.go - Centralized error types for the workforce core

PURPOSE:
  All error types in one place for consistency and discoverability. The
  engine's own functions return values (lists, booleans, signed balances);
  these errors are raised by the service layer when a negative result must
  become a failure, except ErrInvalidDateRange which the balance functions
  return directly.

USAGE:
  Callers branch with errors.Is / errors.As:

    var insErr *engine.InsufficientLeaveDaysError
    if errors.As(err, &insErr) {
        // insErr.Remaining for diagnostic display
    }

SEE ALSO:
  - leave/service.go, staffing/service.go: raise these
  - api/handlers.go: maps them to HTTP statuses
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when an end date precedes a start date.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrLeaveRequestOverlap is raised when a candidate leave period
	// conflicts with an existing non-terminal request.
	ErrLeaveRequestOverlap = errors.New("leave request overlaps an existing request")

	// ErrInsufficientLeaveDays is raised when a request's business-day cost
	// would drive the remaining balance below zero.
	ErrInsufficientLeaveDays = errors.New("insufficient leave days")

	// ErrCapacityExceeded is raised when a project assignment does not fit
	// the employee's remaining capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidPercentage is raised when an allocation percentage falls
	// outside [0, 100].
	ErrInvalidPercentage = errors.New("allocation percentage out of range")

	// ErrEntryNotFound is raised when a referenced user, leave type or
	// project is missing from the caller's snapshot.
	ErrEntryNotFound = errors.New("entry not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry diagnostic context
// =============================================================================

// OverlapError carries the conflicting requests for a rejected period.
type OverlapError struct {
	UserID    string
	Conflicts []LeaveInterval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("leave request for user %s overlaps %d existing request(s)",
		e.UserID, len(e.Conflicts))
}

func (e *OverlapError) Unwrap() error { return ErrLeaveRequestOverlap }

// InsufficientLeaveDaysError reports how far a request overshoots the
// remaining quota.
type InsufficientLeaveDaysError struct {
	UserID      string
	LeaveTypeID string
	Requested   decimal.Decimal
	Remaining   decimal.Decimal
}

func (e *InsufficientLeaveDaysError) Error() string {
	return fmt.Sprintf("insufficient leave days for user %s type %s: requested %v, remaining %v",
		e.UserID, e.LeaveTypeID, e.Requested, e.Remaining)
}

func (e *InsufficientLeaveDaysError) Unwrap() error { return ErrInsufficientLeaveDays }

// CapacityError reports a failed assignment validation.
type CapacityError struct {
	UserID    string
	ProjectID string
	Requested float64 // raw percentage asked for
	Remaining float64 // remaining FTE before the request
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("assignment of %.2f%% on project %s exceeds capacity for user %s (remaining %.2f FTE)",
		e.Requested, e.ProjectID, e.UserID, e.Remaining)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrLeaveRequestOverlap) ||
		errors.Is(err, ErrInsufficientLeaveDays) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInvalidPercentage)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

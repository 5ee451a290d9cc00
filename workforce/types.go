// Package workforce defines the shared domain records that flow between
// the stores, services and API layer: users, leave requests, holidays,
// projects and audit entries. The pure rules live in the engine package;
// this package is the vocabulary the rest of the system speaks.
package workforce

import (
	"time"

	"github.com/warp/workforce-engine/engine"
)

// =============================================================================
// USERS
// =============================================================================

type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	ManagerID      string // empty for top-level managers
	EmploymentType engine.EmploymentType
	CreatedAt      time.Time
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// LeaveRequest is the persisted record behind an engine.LeaveInterval,
// with the lifecycle metadata the engine does not care about.
type LeaveRequest struct {
	ID              string
	UserID          string
	TypeID          string
	Start           engine.Date
	End             engine.Date
	Status          engine.LeaveStatus
	Reason          string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interval projects the request into the engine's snapshot shape.
func (r LeaveRequest) Interval() engine.LeaveInterval {
	return engine.LeaveInterval{
		ID:     r.ID,
		UserID: r.UserID,
		TypeID: r.TypeID,
		Start:  r.Start,
		End:    r.End,
		Status: r.Status,
	}
}

// Intervals converts a batch of requests.
func Intervals(requests []LeaveRequest) []engine.LeaveInterval {
	out := make([]engine.LeaveInterval, len(requests))
	for i, r := range requests {
		out[i] = r.Interval()
	}
	return out
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a public holiday definition. Recurring holidays repeat on the
// same month/day every year; concrete dates for the years in question are
// expanded here, before the engine ever sees them.
type Holiday struct {
	ID        string
	Name      string
	Date      engine.Date
	Recurring bool
}

// ResolveDates expands a holiday list into concrete dates for the given
// years. Non-recurring holidays contribute their own date only when it
// falls inside one of the years.
func ResolveDates(holidays []Holiday, years ...int) engine.HolidaySet {
	set := make(engine.HolidaySet)
	for _, h := range holidays {
		for _, year := range years {
			if h.Recurring {
				d := engine.NewDate(year, h.Date.Month(), h.Date.Day())
				// A Feb 29 recurrence normalizes to Mar 1 in non-leap
				// years; skip the year rather than shift the holiday.
				if d.Month() != h.Date.Month() || d.Day() != h.Date.Day() {
					continue
				}
				set[d] = struct{}{}
			} else if h.Date.Year() == year {
				set[h.Date] = struct{}{}
			}
		}
	}
	return set
}

// =============================================================================
// PROJECTS
// =============================================================================

type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// =============================================================================
// AUDIT LOG
// =============================================================================

type AuditAction string

const (
	AuditLeaveSubmitted    AuditAction = "leave_submitted"
	AuditLeaveApproved     AuditAction = "leave_approved"
	AuditLeaveRejected     AuditAction = "leave_rejected"
	AuditLeaveCancelled    AuditAction = "leave_cancelled"
	AuditAssignmentSaved   AuditAction = "assignment_saved"
	AuditAssignmentRemoved AuditAction = "assignment_removed"
	AuditDelegationCreated AuditAction = "delegation_created"
	AuditCalendarReloaded  AuditAction = "calendar_reloaded"
)

// AuditEntry records who did what when. Append-only.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	Action    AuditAction
	SubjectID string // the user/request/project acted upon
	Details   map[string]string
}

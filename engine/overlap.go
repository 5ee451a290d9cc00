/*
overlap.go - Leave interval conflict detection

PURPOSE:
  Determines whether a candidate leave period for a user collides with any
  of that user's existing leave requests. Two inclusive date intervals
  overlap when they share at least one calendar day, so adjacency (one
  request ending the day another starts) counts as a conflict.

FAILURE SEMANTICS:
  FindOverlapping never errors. It returns the conflicting requests; an
  empty result means the candidate period is clear. The leave service
  turns a non-empty result into an OverlapError.

SEE ALSO:
  - leave/service.go: raises OverlapError on conflicts
*/
package engine

// =============================================================================
// LEAVE INTERVAL - Snapshot of an existing leave request
// =============================================================================

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// Terminal reports whether the status no longer reserves any days.
// Rejected and cancelled requests count toward neither overlap nor
// balance consumption.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveRejected || s == LeaveCancelled
}

// LeaveInterval is the engine's view of a leave request: an inclusive
// date range with a status. Invariant: End >= Start (enforced where
// requests enter the system, not re-checked here).
type LeaveInterval struct {
	ID     string
	UserID string
	TypeID string
	Start  Date
	End    Date
	Status LeaveStatus
}

// Period returns the interval as a Period.
func (li LeaveInterval) Period() Period { return Period{Start: li.Start, End: li.End} }

// Overlaps is the closed-interval test: the intervals share a day iff
// each starts no later than the other ends.
func (li LeaveInterval) Overlaps(start, end Date) bool {
	return li.Start.BeforeOrEqual(end) && li.End.AfterOrEqual(start)
}

// =============================================================================
// OVERLAP DETECTION
// =============================================================================

// FindOverlapping returns every existing request that conflicts with the
// candidate period [start, end]. Requests in a terminal status are skipped,
// as is the request identified by excludeID (the request being edited;
// pass "" for a new request).
func FindOverlapping(existing []LeaveInterval, start, end Date, excludeID string) []LeaveInterval {
	var conflicts []LeaveInterval
	for _, req := range existing {
		if req.Status.Terminal() {
			continue
		}
		if excludeID != "" && req.ID == excludeID {
			continue
		}
		if req.Overlaps(start, end) {
			conflicts = append(conflicts, req)
		}
	}
	return conflicts
}

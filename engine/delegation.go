/*
delegation.go - Temporary second-manager delegation

PURPOSE:
  Resolves whether a delegation window is currently open and what
  authority it grants. There is no stored state machine: a delegation is
  pending, active or expired purely by comparing "now" to its bounds, and
  status is recomputed from the clock on every query.

SELECTION AMBIGUITY:
  Nothing prevents two windows for the same manager pair from overlapping.
  When several delegations are simultaneously active for one replaced
  manager, ActiveDelegateFor returns the first match in snapshot order.
  Deliberately left undefined beyond that; see DESIGN.md.

SEE ALSO:
  - authz/: turns these queries into access-control decisions
*/
package engine

import "time"

// =============================================================================
// DELEGATION - Time-bounded authority grant
// =============================================================================

// Delegation grants SecondManagerID the authority of ReplacedManagerID
// for the window [StartsAt, EndsAt]. Invariant: EndsAt > StartsAt.
type Delegation struct {
	ID                string
	SecondManagerID   string
	ReplacedManagerID string
	StartsAt          time.Time
	EndsAt            time.Time
}

type DelegationStatus string

const (
	DelegationPending DelegationStatus = "pending"
	DelegationActive  DelegationStatus = "active"
	DelegationExpired DelegationStatus = "expired"
)

// StatusAt derives the delegation's status from the clock. Both window
// bounds are inclusive: the delegation is active at exactly StartsAt and
// at exactly EndsAt.
func (d Delegation) StatusAt(now time.Time) DelegationStatus {
	if now.Before(d.StartsAt) {
		return DelegationPending
	}
	if now.After(d.EndsAt) {
		return DelegationExpired
	}
	return DelegationActive
}

// ActiveAt is shorthand for StatusAt(now) == DelegationActive.
func (d Delegation) ActiveAt(now time.Time) bool {
	return !now.Before(d.StartsAt) && !now.After(d.EndsAt)
}

// =============================================================================
// RESOLUTION QUERIES
// =============================================================================

// IsActingAsSecondManager reports whether the user currently holds a
// delegated manager role under any delegation in the snapshot.
func IsActingAsSecondManager(userID string, now time.Time, delegations []Delegation) bool {
	for _, d := range delegations {
		if d.SecondManagerID == userID && d.ActiveAt(now) {
			return true
		}
	}
	return false
}

// IsManagerTemporarilyReplaced reports whether the manager's authority is
// currently delegated to someone else.
func IsManagerTemporarilyReplaced(managerID string, now time.Time, delegations []Delegation) bool {
	for _, d := range delegations {
		if d.ReplacedManagerID == managerID && d.ActiveAt(now) {
			return true
		}
	}
	return false
}

// ActiveDelegateFor returns the user currently acting for the manager,
// first match in snapshot order when several windows are active at once.
func ActiveDelegateFor(managerID string, now time.Time, delegations []Delegation) (string, bool) {
	for _, d := range delegations {
		if d.ReplacedManagerID == managerID && d.ActiveAt(now) {
			return d.SecondManagerID, true
		}
	}
	return "", false
}

// CanAccessSubordinateData reports whether actingUserID may see data
// scoped to targetManagerID: either they are that manager, or they are an
// active delegate for them.
func CanAccessSubordinateData(actingUserID, targetManagerID string, now time.Time, delegations []Delegation) bool {
	if actingUserID == targetManagerID {
		return true
	}
	for _, d := range delegations {
		if d.ReplacedManagerID == targetManagerID && d.SecondManagerID == actingUserID && d.ActiveAt(now) {
			return true
		}
	}
	return false
}

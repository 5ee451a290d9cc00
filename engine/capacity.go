/*
capacity.go - FTE capacity allocation across project assignments

PURPOSE:
  Computes an employee's total and remaining capacity in FTE units and
  validates whether a new or updated project assignment still fits.

THE PART-TIME WEIGHTING RULE:
  A project percentage is measured against a full working day regardless
  of employment type. A part-time employee therefore consumes capacity at
  double rate relative to their 0.5 FTE baseline: a 40% allocation costs
  them 80 effective points. This is stated business policy, captured in
  partTimePercentWeight rather than derived from anything.

FAILURE SEMANTICS:
  ValidateAssignment is a pure predicate. The staffing service raises
  CapacityError when it returns false; nothing here errors or panics.

SEE ALSO:
  - staffing/service.go: drives these checks before persisting
*/
package engine

// =============================================================================
// EMPLOYMENT TYPE - FTE baseline
// =============================================================================

type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	PartTime EmploymentType = "part_time"
)

// partTimePercentWeight doubles a part-time employee's project percentage
// when charged against capacity. Stated policy, see file header.
const partTimePercentWeight = 2

// TotalAvailability returns the FTE baseline for an employment type.
// Unknown values fall back to full-time, the conservative default: it
// never grants more room than a real profile would.
func TotalAvailability(et EmploymentType) float64 {
	switch et {
	case PartTime:
		return 0.5
	default:
		return 1.0
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// Allocation is one project commitment: Percent of a full working day
// spent on ProjectID. Invariant: Percent in [0, 100] and at most one
// allocation per (user, project), both enforced at the service boundary.
type Allocation struct {
	UserID    string
	ProjectID string
	Percent   float64
}

// EffectiveAllocation converts a raw project percentage into capacity
// points charged against the employee's FTE baseline.
func EffectiveAllocation(percent float64, et EmploymentType) float64 {
	if et == PartTime {
		return percent * partTimePercentWeight
	}
	return percent
}

// effectiveTotal sums effective allocation points, skipping the project
// being edited when excludeProjectID is non-empty.
func effectiveTotal(et EmploymentType, allocations []Allocation, excludeProjectID string) float64 {
	total := 0.0
	for _, a := range allocations {
		if excludeProjectID != "" && a.ProjectID == excludeProjectID {
			continue
		}
		total += EffectiveAllocation(a.Percent, et)
	}
	return total
}

// RemainingAvailability returns the unallocated share of the employee's
// FTE baseline, floored at zero.
func RemainingAvailability(et EmploymentType, allocations []Allocation) float64 {
	remaining := TotalAvailability(et) - effectiveTotal(et, allocations, "")/100
	if remaining < 0 {
		return 0
	}
	return remaining
}

// capacityEpsilon absorbs float summation noise so that an exact 100%
// boundary passes while a genuine 100.01% excess fails.
const capacityEpsilon = 1e-9

// ValidateAssignment reports whether assigning newPercent fits the
// employee's capacity. excludeProjectID names the allocation being
// replaced when updating an existing assignment ("" for a new one).
//
// The boundary is 100 effective points for everyone: the part-time
// doubling in EffectiveAllocation already maps the 0.5 FTE baseline
// onto the full scale. Equality at the boundary is allowed.
func ValidateAssignment(et EmploymentType, allocations []Allocation, newPercent float64, excludeProjectID string) bool {
	total := effectiveTotal(et, allocations, excludeProjectID) + EffectiveAllocation(newPercent, et)
	return total <= 100+capacityEpsilon
}

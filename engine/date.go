/*
Package engine implements the capacity and leave accounting core.

PURPOSE:
  This package contains the pure computations behind workforce decisions:
  whether a leave period is legal and how many leave days remain, whether a
  project assignment fits an employee's capacity, and who currently holds
  managerial authority while a delegation window is open.

KEY CONCEPTS:
  - Date/Period:       day-granularity date arithmetic (date.go)
  - CalendarConfig:    weekend definition and working-day counting (calendar.go)
  - FindOverlapping:   closed-interval conflict detection (overlap.go)
  - RemainingDays:     quota minus business-day consumption (balance.go)
  - EffectiveAllocation / ValidateAssignment: FTE capacity (capacity.go)
  - Delegation:        clock-derived delegation status (delegation.go)

DESIGN PRINCIPLES:
  1. Purity: every function reads a snapshot supplied by the caller and
     returns a value. No storage access, no logging, no hidden state.
  2. Precision: leave-day quantities use decimal.Decimal.
  3. Values over exceptions: conflict lists, booleans and signed balances
     are returned as-is; the service layer decides what becomes an error.

SEE ALSO:
  - errors.go: the shared error taxonomy raised by callers
  - leave/, staffing/, authz/: the services that drive this engine
*/
package engine

import "time"

// =============================================================================
// DATE - Day-granularity calendar date (UTC)
// =============================================================================

// Date is a calendar day. The underlying time is always midnight UTC so
// comparisons are exact day comparisons.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses the wire format "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Max returns the later of two dates.
func (d Date) Max(other Date) Date {
	if other.After(d) {
		return other
	}
	return d
}

// Min returns the earlier of two dates.
func (d Date) Min(other Date) Date {
	if other.Before(d) {
		return other
	}
	return d
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive date range [Start, End]. Balances are always
// computed for a period, never at a point in time.
type Period struct {
	Start Date
	End   Date
}

// Valid reports whether the period is well-formed (End >= Start).
func (p Period) Valid() bool { return p.End.AfterOrEqual(p.Start) }

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Clip intersects the period with another. The result may be invalid
// (End < Start) when the two periods are disjoint.
func (p Period) Clip(other Period) Period {
	return Period{
		Start: p.Start.Max(other.Start),
		End:   p.End.Min(other.End),
	}
}

// Days returns the number of calendar days in the period, 0 when invalid.
func (p Period) Days() int {
	if !p.Valid() {
		return 0
	}
	return int(p.End.t.Sub(p.Start.t).Hours()/24) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// CalendarYear returns the period covering a full calendar year.
func CalendarYear(year int) Period {
	return Period{
		Start: NewDate(year, time.January, 1),
		End:   NewDate(year, time.December, 31),
	}
}

// =============================================================================
// HOLIDAY SET - Concrete holiday dates, recurrence already expanded
// =============================================================================

// HolidaySet is a lookup over resolved holiday dates. Callers expand
// recurring holidays for the years in question before building the set;
// the engine only ever asks "is this date a holiday".
type HolidaySet map[Date]struct{}

func NewHolidaySet(dates ...Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func (h HolidaySet) Contains(d Date) bool {
	_, ok := h[d]
	return ok
}

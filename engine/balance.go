/*
balance.go - Remaining leave-day calculation

PURPOSE:
  Computes how many leave days remain for a (user, leave type, period)
  triple. Each non-terminal request is clipped to the queried period and
  priced in working days, so a leave spanning a year boundary only charges
  the portion inside the queried window.

NUMERIC SEMANTICS:
  The result can be negative when prior approvals already exceed the
  quota. Over-allocation is reported, not floored; whether a negative
  balance blocks further requests is the calling policy's decision.

SEE ALSO:
  - calendar.go: working-day counting
  - leave/service.go: raises InsufficientLeaveDaysError when a new
    request would push the balance below zero
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// LEAVE TYPE - Quota definition
// =============================================================================

// LeaveType defines a category of leave and its yearly quota.
type LeaveType struct {
	ID      string
	Name    string
	MaxDays decimal.Decimal
	Paid    bool
}

// =============================================================================
// BALANCE CALCULATION
// =============================================================================

// ConsumedDays sums the working-day cost of all non-terminal requests,
// each clipped to the given period. Requests entirely outside the period
// contribute nothing.
func ConsumedDays(cfg CalendarConfig, requests []LeaveInterval, period Period, holidays HolidaySet) decimal.Decimal {
	consumed := decimal.Zero
	for _, req := range requests {
		if req.Status.Terminal() {
			continue
		}
		clipped := req.Period().Clip(period)
		if !clipped.Valid() {
			continue
		}
		days := cfg.CountWorkingDays(clipped.Start, clipped.End, holidays)
		consumed = consumed.Add(decimal.NewFromInt(int64(days)))
	}
	return consumed
}

// PeriodCost prices a period in working days as a decimal quantity.
// Invalid (disjoint-clip) periods cost nothing.
func PeriodCost(cfg CalendarConfig, period Period, holidays HolidaySet) decimal.Decimal {
	if !period.Valid() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(cfg.CountWorkingDays(period.Start, period.End, holidays)))
}

// RemainingDays returns the leave balance for a calendar year:
// the type's quota minus the working days consumed by the supplied
// approved and pending requests, clipped to that year.
func RemainingDays(cfg CalendarConfig, leaveType LeaveType, requests []LeaveInterval, year int, holidays HolidaySet) decimal.Decimal {
	return leaveType.MaxDays.Sub(ConsumedDays(cfg, requests, CalendarYear(year), holidays))
}

// RemainingDaysForPeriod is RemainingDays over an arbitrary period.
// Returns ErrInvalidDateRange when the period's end precedes its start.
func RemainingDaysForPeriod(cfg CalendarConfig, leaveType LeaveType, requests []LeaveInterval, period Period, holidays HolidaySet) (decimal.Decimal, error) {
	if !period.Valid() {
		return decimal.Zero, ErrInvalidDateRange
	}
	return leaveType.MaxDays.Sub(ConsumedDays(cfg, requests, period, holidays)), nil
}

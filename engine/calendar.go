/*
calendar.go - Weekend configuration and working-day counting

PURPOSE:
  Decides whether a date is a weekend under a configurable weekend-day set
  and counts working/weekend days across inclusive ranges. A working day is
  a day that is neither a configured weekend day nor a holiday.

CONFIG LIFECYCLE:
  CalendarConfig is an immutable value. The process-wide instance lives in
  a ConfigHolder and is replaced wholesale on reload: an in-flight counting
  call keeps the config it loaded, so it never observes a torn update.

SEE ALSO:
  - balance.go: converts leave ranges to business-day counts
  - config package: builds the startup config from WEEKEND_DAYS
*/
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// =============================================================================
// CALENDAR CONFIG - Immutable weekend definition
// =============================================================================

// CalendarConfig defines which weekdays count as weekend. The zero value
// treats every day as a working day; use DefaultCalendarConfig for the
// conventional Saturday/Sunday weekend.
type CalendarConfig struct {
	weekend map[time.Weekday]struct{}
}

// NewCalendarConfig builds a config from weekday values.
func NewCalendarConfig(days ...time.Weekday) CalendarConfig {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return CalendarConfig{weekend: set}
}

// DefaultCalendarConfig is the Saturday/Sunday weekend.
func DefaultCalendarConfig() CalendarConfig {
	return NewCalendarConfig(time.Saturday, time.Sunday)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseCalendarConfig builds a config from weekday names (case-insensitive,
// e.g. "Saturday"). Unknown names are rejected rather than skipped so a
// typo in configuration cannot silently shrink the weekend.
func ParseCalendarConfig(names []string) (CalendarConfig, error) {
	set := make(map[time.Weekday]struct{}, len(names))
	for _, name := range names {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return CalendarConfig{}, fmt.Errorf("invalid weekend day name %q", name)
		}
		set[wd] = struct{}{}
	}
	return CalendarConfig{weekend: set}, nil
}

// WeekendDayCount returns how many weekdays are configured as weekend.
func (c CalendarConfig) WeekendDayCount() int { return len(c.weekend) }

// WeekendDays returns the configured weekend weekdays in Sunday-first order.
func (c CalendarConfig) WeekendDays() []time.Weekday {
	days := make([]time.Weekday, 0, len(c.weekend))
	for d := range c.weekend {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// IsWeekend returns true iff the date's weekday is in the weekend set.
func (c CalendarConfig) IsWeekend(d Date) bool {
	_, ok := c.weekend[d.Weekday()]
	return ok
}

// IsWorkingDay returns true iff the date is neither weekend nor holiday.
func (c CalendarConfig) IsWorkingDay(d Date, holidays HolidaySet) bool {
	return !c.IsWeekend(d) && !holidays.Contains(d)
}

// CountWorkingDays counts days in [start, end] that are neither weekend
// days nor holidays. Both bounds inclusive; 0 when end < start.
func (c CalendarConfig) CountWorkingDays(start, end Date, holidays HolidaySet) int {
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWorkingDay(d, holidays) {
			count++
		}
	}
	return count
}

// CountWeekendDays counts weekend days in [start, end]. Holidays are
// ignored: a holiday falling on a weekend still counts as a weekend day.
func (c CalendarConfig) CountWeekendDays(start, end Date) int {
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWeekend(d) {
			count++
		}
	}
	return count
}

// =============================================================================
// CONFIG HOLDER - Atomic reload-and-swap owner
// =============================================================================

// ConfigHolder owns the live CalendarConfig. Load returns the config as a
// value; Store swaps it wholesale. Readers that loaded the old config keep
// computing against it, which is exactly the required semantics for an
// atomic reload.
type ConfigHolder struct {
	current atomic.Pointer[CalendarConfig]
}

func NewConfigHolder(cfg CalendarConfig) *ConfigHolder {
	h := &ConfigHolder{}
	h.Store(cfg)
	return h
}

func (h *ConfigHolder) Load() CalendarConfig {
	if p := h.current.Load(); p != nil {
		return *p
	}
	return DefaultCalendarConfig()
}

func (h *ConfigHolder) Store(cfg CalendarConfig) {
	h.current.Store(&cfg)
}

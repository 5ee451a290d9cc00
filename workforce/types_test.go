package workforce_test

import (
	"testing"
	"time"

	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// HOLIDAY EXPANSION
// =============================================================================

func TestResolveDates_RecurringExpandsPerYear(t *testing.T) {
	holidays := []workforce.Holiday{
		{ID: "h-1", Name: "New Year", Date: engine.NewDate(2020, time.January, 1), Recurring: true},
	}

	set := workforce.ResolveDates(holidays, 2024, 2025)
	if !set.Contains(engine.NewDate(2024, time.January, 1)) {
		t.Error("expected the 2024 occurrence")
	}
	if !set.Contains(engine.NewDate(2025, time.January, 1)) {
		t.Error("expected the 2025 occurrence")
	}
}

func TestResolveDates_OneOffOnlyInItsYear(t *testing.T) {
	holidays := []workforce.Holiday{
		{ID: "h-1", Name: "Company day", Date: engine.NewDate(2025, time.May, 12)},
	}

	if set := workforce.ResolveDates(holidays, 2025); !set.Contains(engine.NewDate(2025, time.May, 12)) {
		t.Error("expected the holiday in its own year")
	}
	if set := workforce.ResolveDates(holidays, 2024); len(set) != 0 {
		t.Errorf("expected an empty set for another year, got %d dates", len(set))
	}
}

func TestResolveDates_LeapDaySkippedInCommonYears(t *testing.T) {
	// GIVEN: a recurring Feb 29 holiday
	// WHEN: expanding into a leap year and a common year
	// THEN: the leap year gets Feb 29; the common year gets nothing,
	//       not a shifted Mar 1
	holidays := []workforce.Holiday{
		{ID: "h-1", Name: "Leap day", Date: engine.NewDate(2024, time.February, 29), Recurring: true},
	}

	set := workforce.ResolveDates(holidays, 2024, 2025)
	if !set.Contains(engine.NewDate(2024, time.February, 29)) {
		t.Error("expected Feb 29 in the leap year")
	}
	if set.Contains(engine.NewDate(2025, time.March, 1)) {
		t.Error("Feb 29 must not shift to Mar 1 in a common year")
	}
	if len(set) != 1 {
		t.Errorf("expected exactly one date, got %d", len(set))
	}
}

package engine_test

import (
	"testing"
	"time"

	"github.com/warp/workforce-engine/engine"
)

func interval(id string, start, end engine.Date, status engine.LeaveStatus) engine.LeaveInterval {
	return engine.LeaveInterval{
		ID:     id,
		UserID: "emp-1",
		TypeID: "annual",
		Start:  start,
		End:    end,
		Status: status,
	}
}

// =============================================================================
// OVERLAP DETECTION
// =============================================================================

func TestFindOverlapping_ContainedCandidate(t *testing.T) {
	// GIVEN: existing approved request Jun 1-10
	// WHEN: candidate Jun 5-15
	// THEN: the existing request is returned
	existing := []engine.LeaveInterval{
		interval("req-1", date(2024, time.June, 1), date(2024, time.June, 10), engine.LeaveApproved),
	}

	conflicts := engine.FindOverlapping(existing, date(2024, time.June, 5), date(2024, time.June, 15), "")
	if len(conflicts) != 1 || conflicts[0].ID != "req-1" {
		t.Fatalf("expected req-1 as conflict, got %v", conflicts)
	}
}

func TestFindOverlapping_AdjacencyCounts(t *testing.T) {
	// GIVEN: existing request Jun 12-15
	// WHEN: candidate Jun 10-12 (shares the boundary day)
	// THEN: overlap, because both bounds are inclusive days
	existing := []engine.LeaveInterval{
		interval("req-1", date(2024, time.June, 12), date(2024, time.June, 15), engine.LeavePending),
	}

	conflicts := engine.FindOverlapping(existing, date(2024, time.June, 10), date(2024, time.June, 12), "")
	if len(conflicts) != 1 {
		t.Fatalf("shared boundary day must count as overlap, got %v", conflicts)
	}
}

func TestFindOverlapping_DisjointIsClear(t *testing.T) {
	existing := []engine.LeaveInterval{
		interval("req-1", date(2024, time.June, 1), date(2024, time.June, 10), engine.LeaveApproved),
	}

	conflicts := engine.FindOverlapping(existing, date(2024, time.June, 11), date(2024, time.June, 15), "")
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
}

func TestFindOverlapping_Symmetric(t *testing.T) {
	// PROPERTY: if A overlaps B then B overlaps A
	a := interval("a", date(2024, time.March, 5), date(2024, time.March, 12), engine.LeaveApproved)
	b := interval("b", date(2024, time.March, 10), date(2024, time.March, 20), engine.LeaveApproved)

	aOverB := len(engine.FindOverlapping([]engine.LeaveInterval{a}, b.Start, b.End, "")) > 0
	bOverA := len(engine.FindOverlapping([]engine.LeaveInterval{b}, a.Start, a.End, "")) > 0

	if aOverB != bOverA {
		t.Errorf("overlap is not symmetric: a-over-b=%v b-over-a=%v", aOverB, bOverA)
	}
	if !aOverB {
		t.Error("expected the intervals to overlap")
	}
}

func TestFindOverlapping_TerminalStatusesIgnored(t *testing.T) {
	// GIVEN: rejected and cancelled requests covering the candidate period
	// THEN: neither counts toward overlap
	existing := []engine.LeaveInterval{
		interval("req-1", date(2024, time.June, 1), date(2024, time.June, 30), engine.LeaveRejected),
		interval("req-2", date(2024, time.June, 1), date(2024, time.June, 30), engine.LeaveCancelled),
	}

	conflicts := engine.FindOverlapping(existing, date(2024, time.June, 5), date(2024, time.June, 10), "")
	if len(conflicts) != 0 {
		t.Fatalf("terminal requests must not conflict, got %v", conflicts)
	}
}

func TestFindOverlapping_ExcludesRequestBeingEdited(t *testing.T) {
	// GIVEN: an edit to req-1 that still covers its own old period
	// THEN: req-1 itself is not a conflict, but req-2 is
	existing := []engine.LeaveInterval{
		interval("req-1", date(2024, time.June, 1), date(2024, time.June, 10), engine.LeaveApproved),
		interval("req-2", date(2024, time.June, 9), date(2024, time.June, 12), engine.LeavePending),
	}

	conflicts := engine.FindOverlapping(existing, date(2024, time.June, 2), date(2024, time.June, 9), "req-1")
	if len(conflicts) != 1 || conflicts[0].ID != "req-2" {
		t.Fatalf("expected only req-2 as conflict, got %v", conflicts)
	}
}

func TestFindOverlapping_SingleDayIntervals(t *testing.T) {
	day := date(2024, time.June, 10)
	existing := []engine.LeaveInterval{
		interval("req-1", day, day, engine.LeaveApproved),
	}

	if len(engine.FindOverlapping(existing, day, day, "")) != 1 {
		t.Error("identical single-day intervals must overlap")
	}
}

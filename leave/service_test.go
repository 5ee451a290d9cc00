package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/leave"
	"github.com/warp/workforce-engine/store/sqlite"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLeaveService(t *testing.T) (*leave.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := &leave.Service{
		Users:    store,
		Types:    store,
		Requests: store,
		Holidays: store,
		Audit:    store,
		Calendar: engine.NewConfigHolder(engine.DefaultCalendarConfig()),
		Clock:    func() time.Time { return time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC) },
	}
	return svc, store
}

func seedUser(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	err := store.CreateUser(context.Background(), workforce.User{
		ID:             id,
		Name:           "Employee " + id,
		Email:          id + "@example.com",
		PasswordHash:   "x",
		EmploymentType: engine.FullTime,
		CreatedAt:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func seedType(t *testing.T, store *sqlite.Store, id string, maxDays int) {
	t.Helper()
	err := store.CreateLeaveType(context.Background(), engine.LeaveType{
		ID:      id,
		Name:    id,
		MaxDays: decimal.NewFromInt(int64(maxDays)),
		Paid:    true,
	})
	require.NoError(t, err)
}

func d(year int, month time.Month, day int) engine.Date {
	return engine.NewDate(year, month, day)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	// GIVEN: A user with an annual leave quota
	// WHEN: They submit a valid request
	// THEN: The request is persisted as Pending

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "summer break")
	require.NoError(t, err)
	assert.Equal(t, engine.LeavePending, req.Status)
	assert.NotEmpty(t, req.ID)

	stored, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.LeavePending, stored.Status)
	assert.Equal(t, "summer break", stored.Reason)
}

func TestSubmit_EndBeforeStart_Rejected(t *testing.T) {
	// GIVEN: A valid user and type
	// WHEN: End date precedes start date
	// THEN: ErrInvalidDateRange

	svc, store := newTestLeaveService(t)
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	_, err := svc.Submit(context.Background(), "emp-1", "annual", d(2025, time.June, 10), d(2025, time.June, 5), "")
	assert.ErrorIs(t, err, engine.ErrInvalidDateRange)
}

func TestSubmit_UnknownUser_NotFound(t *testing.T) {
	svc, store := newTestLeaveService(t)
	seedType(t, store, "annual", 25)

	_, err := svc.Submit(context.Background(), "nobody", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	assert.ErrorIs(t, err, engine.ErrEntryNotFound)
}

func TestSubmit_Overlap_Rejected(t *testing.T) {
	// GIVEN: An approved request for June 1-10
	// WHEN: Submitting June 5-15
	// THEN: Rejected with an OverlapError naming the conflict

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	first, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 1), d(2025, time.June, 10), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, first.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 5), d(2025, time.June, 15), "")
	assert.ErrorIs(t, err, engine.ErrLeaveRequestOverlap)

	var overlapErr *engine.OverlapError
	require.ErrorAs(t, err, &overlapErr)
	require.Len(t, overlapErr.Conflicts, 1)
	assert.Equal(t, first.ID, overlapErr.Conflicts[0].ID)
}

func TestSubmit_AdjacentPeriods_Allowed(t *testing.T) {
	// GIVEN: A request ending June 10
	// WHEN: Submitting one starting June 11
	// THEN: Both coexist; adjacency is not overlap

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	_, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 9), d(2025, time.June, 10), "")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 11), d(2025, time.June, 12), "")
	assert.NoError(t, err)
}

func TestSubmit_OverlapWithCancelled_Allowed(t *testing.T) {
	// GIVEN: A cancelled request for June 1-10
	// WHEN: Submitting the same period again
	// THEN: Accepted; terminal requests hold no days

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	first, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 1), d(2025, time.June, 10), "")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, first.ID, "emp-1")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 1), d(2025, time.June, 10), "")
	assert.NoError(t, err)
}

func TestSubmit_WeekendOnly_Rejected(t *testing.T) {
	// GIVEN: The default Saturday/Sunday weekend
	// WHEN: Requesting a Saturday-Sunday period
	// THEN: Rejected; the period contains no working days

	svc, store := newTestLeaveService(t)
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	// 2025-06-07 is a Saturday
	_, err := svc.Submit(context.Background(), "emp-1", "annual", d(2025, time.June, 7), d(2025, time.June, 8), "")
	assert.ErrorIs(t, err, engine.ErrInvalidDateRange)
}

func TestSubmit_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: A type with only 3 days per year
	// WHEN: Requesting a full working week
	// THEN: InsufficientLeaveDaysError with requested and remaining amounts

	svc, store := newTestLeaveService(t)
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 3)

	// Mon-Fri: 5 working days
	_, err := svc.Submit(context.Background(), "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "")
	assert.ErrorIs(t, err, engine.ErrInsufficientLeaveDays)

	var balErr *engine.InsufficientLeaveDaysError
	require.ErrorAs(t, err, &balErr)
	assert.True(t, balErr.Requested.Equal(decimal.NewFromInt(5)), "requested %s", balErr.Requested)
	assert.True(t, balErr.Remaining.Equal(decimal.NewFromInt(3)), "remaining %s", balErr.Remaining)
}

func TestSubmit_HolidaysNotCounted(t *testing.T) {
	// GIVEN: A holiday inside the requested week and a 4-day quota
	// WHEN: Requesting Mon-Fri
	// THEN: Accepted; the holiday reduces the cost to 4

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 4)

	err := store.CreateHoliday(ctx, workforce.Holiday{
		ID:   "hol-1",
		Name: "Midweek Holiday",
		Date: d(2025, time.June, 4),
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "")
	assert.NoError(t, err)
}

func TestSubmit_YearBoundary_ChecksEachYear(t *testing.T) {
	// GIVEN: 2 remaining days in 2025 and a fresh 2026 quota
	// WHEN: Requesting Dec 29 2025 - Jan 2 2026 (3 working days in 2025)
	// THEN: Rejected against the 2025 portion only

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	// Consume 23 of 25 days in 2025: Nov 3 - Dec 3 has 23 working days.
	first, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.November, 3), d(2025, time.December, 3), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, first.ID, "mgr-1")
	require.NoError(t, err)

	// Dec 29-31 2025 are Mon-Wed: 3 working days, only 2 remain.
	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.December, 29), d(2026, time.January, 2), "")
	assert.ErrorIs(t, err, engine.ErrInsufficientLeaveDays)

	// Dec 30-31 (2 days) plus Jan 1-2 fits both years.
	_, err = svc.Submit(ctx, "emp-1", "annual", d(2025, time.December, 30), d(2026, time.January, 2), "")
	assert.NoError(t, err)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestApprove_SetsApproverAndTimestamp(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, engine.LeaveApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "mgr-1", *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
}

func TestApprove_NonPending_Rejected(t *testing.T) {
	// GIVEN: An already approved request
	// WHEN: Approving it again
	// THEN: Error naming the current status

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	assert.ErrorContains(t, err, "can only approve pending requests")
}

func TestReject_StoresReason(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, req.ID, "mgr-1", "project deadline")
	require.NoError(t, err)
	assert.Equal(t, engine.LeaveRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "project deadline", *rejected.RejectionReason)
}

func TestCancel_ApprovedRequest_Allowed(t *testing.T) {
	// GIVEN: An approved request
	// WHEN: The user cancels it
	// THEN: Status becomes Cancelled and its days are released

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, engine.LeaveCancelled, cancelled.Status)

	balance, err := svc.Balance(ctx, "emp-1", "annual", 2025)
	require.NoError(t, err)
	assert.Equal(t, "25", balance.Remaining)
}

func TestCancel_Terminal_Rejected(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, req.ID, "mgr-1", "no")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, req.ID, "emp-1")
	assert.ErrorContains(t, err, "cannot cancel")
}

func TestReschedule_ExcludesOwnPeriod(t *testing.T) {
	// GIVEN: A pending request for June 2-6
	// WHEN: Rescheduling to the overlapping June 4-9
	// THEN: Accepted; a request never conflicts with itself

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "")
	require.NoError(t, err)

	moved, err := svc.Reschedule(ctx, req.ID, d(2025, time.June, 4), d(2025, time.June, 9))
	require.NoError(t, err)
	assert.Equal(t, d(2025, time.June, 4), moved.Start)
	assert.Equal(t, engine.LeavePending, moved.Status)
}

func TestReschedule_ApprovedRequest_Rejected(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, req.ID, d(2025, time.June, 9), d(2025, time.June, 10))
	assert.ErrorContains(t, err, "can only reschedule pending requests")
}

// =============================================================================
// BALANCE
// =============================================================================

func TestBalance_AfterApprovedLeave(t *testing.T) {
	// GIVEN: MaxDays=25 and an approved request consuming 10 working days
	// WHEN: Reading the balance
	// THEN: Remaining is 15

	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	// June 2-13 2025: two full working weeks.
	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 13), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, "emp-1", "annual", 2025)
	require.NoError(t, err)
	assert.Equal(t, "10", balance.Consumed)
	assert.Equal(t, "15", balance.Remaining)
	assert.Equal(t, "25", balance.MaxDays)
}

func TestBalance_PendingAlsoConsumes(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	_, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 6), "")
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, "emp-1", "annual", 2025)
	require.NoError(t, err)
	assert.Equal(t, "5", balance.Consumed)
	assert.Equal(t, "20", balance.Remaining)
}

func TestBalance_UnknownType_NotFound(t *testing.T) {
	svc, store := newTestLeaveService(t)
	seedUser(t, store, "emp-1")

	_, err := svc.Balance(context.Background(), "emp-1", "ghost", 2025)
	assert.ErrorIs(t, err, engine.ErrEntryNotFound)
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestLifecycle_WritesAuditTrail(t *testing.T) {
	svc, store := newTestLeaveService(t)
	ctx := context.Background()
	seedUser(t, store, "emp-1")
	seedType(t, store, "annual", 25)

	req, err := svc.Submit(ctx, "emp-1", "annual", d(2025, time.June, 2), d(2025, time.June, 3), "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	entries, err := store.ListAuditBySubject(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, workforce.AuditLeaveSubmitted, entries[0].Action)
	assert.Equal(t, workforce.AuditLeaveApproved, entries[1].Action)
	assert.Equal(t, "mgr-1", entries[1].ActorID)
}

/*
Package leave orchestrates the leave-request lifecycle.

PURPOSE:
  Submission runs the two engine checks in order - overlap detection, then
  balance - before anything is persisted, and the persistence layer's own
  conflict check remains authoritative for the check-then-act race between
  two concurrent submissions.

REQUEST FLOW:
  Submit       -> validate dates -> overlap check -> balance check -> Pending
  Approve      -> Pending -> Approved
  Reject       -> Pending -> Rejected (releases the reserved days)
  Cancel       -> Pending/Approved -> Cancelled
  Reschedule   -> Pending only; re-runs both checks excluding the request
                  being edited

FAILURE SEMANTICS:
  The engine returns values; this service turns negative results into the
  engine's error taxonomy (OverlapError, InsufficientLeaveDaysError,
  ErrInvalidDateRange, ErrEntryNotFound). It never logs - the API layer
  decides what a failure looks like to the outside.

SEE ALSO:
  - engine/overlap.go, engine/balance.go: the checks driven here
  - store/sqlite: the authoritative conflict re-check on insert
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// STORE INTERFACES - Implemented by store/sqlite
// =============================================================================

type UserStore interface {
	GetUser(ctx context.Context, id string) (workforce.User, error)
}

type LeaveTypeStore interface {
	GetLeaveType(ctx context.Context, id string) (engine.LeaveType, error)
}

type RequestStore interface {
	GetRequest(ctx context.Context, id string) (workforce.LeaveRequest, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]workforce.LeaveRequest, error)

	// InsertRequest re-checks for overlapping non-terminal requests inside
	// the same transaction as the write, so the loser of a concurrent
	// submission race fails with ErrLeaveRequestOverlap.
	InsertRequest(ctx context.Context, req workforce.LeaveRequest) error

	UpdateRequest(ctx context.Context, req workforce.LeaveRequest) error
}

type HolidayStore interface {
	ListHolidays(ctx context.Context) ([]workforce.Holiday, error)
}

type AuditLog interface {
	AppendAudit(ctx context.Context, entry workforce.AuditEntry) error
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Users    UserStore
	Types    LeaveTypeStore
	Requests RequestStore
	Holidays HolidayStore
	Audit    AuditLog
	Calendar *engine.ConfigHolder

	// Clock is swappable for tests; defaults to time.Now.
	Clock func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// holidaysFor resolves concrete holiday dates covering [start, end].
func (s *Service) holidaysFor(ctx context.Context, start, end engine.Date) (engine.HolidaySet, error) {
	holidays, err := s.Holidays.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	var years []int
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return workforce.ResolveDates(holidays, years...), nil
}

// Submit validates and persists a new leave request in Pending status.
func (s *Service) Submit(ctx context.Context, userID, typeID string, start, end engine.Date, reason string) (*workforce.LeaveRequest, error) {
	if end.Before(start) {
		return nil, engine.ErrInvalidDateRange
	}

	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	leaveType, err := s.Types.GetLeaveType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Requests.ListRequestsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing requests: %w", err)
	}

	if err := s.validatePeriod(ctx, user.ID, leaveType, existing, start, end, ""); err != nil {
		return nil, err
	}

	now := s.now()
	request := workforce.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TypeID:    leaveType.ID,
		Start:     start,
		End:       end,
		Status:    engine.LeavePending,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The store's transactional re-check is the real guard against two
	// submissions racing past the validation above.
	if err := s.Requests.InsertRequest(ctx, request); err != nil {
		return nil, err
	}

	if err := s.audit(ctx, user.ID, workforce.AuditLeaveSubmitted, request.ID, map[string]string{
		"start": start.String(),
		"end":   end.String(),
		"type":  leaveType.ID,
	}); err != nil {
		return nil, err
	}

	return &request, nil
}

// validatePeriod runs the overlap and balance checks for a candidate
// period. excludeID names the request being edited ("" on submission).
func (s *Service) validatePeriod(ctx context.Context, userID string, leaveType engine.LeaveType, existing []workforce.LeaveRequest, start, end engine.Date, excludeID string) error {
	intervals := workforce.Intervals(existing)

	if conflicts := engine.FindOverlapping(intervals, start, end, excludeID); len(conflicts) > 0 {
		return &engine.OverlapError{UserID: userID, Conflicts: conflicts}
	}

	holidays, err := s.holidaysFor(ctx, start, end)
	if err != nil {
		return err
	}
	cfg := s.Calendar.Load()

	if cfg.CountWorkingDays(start, end, holidays) == 0 {
		return fmt.Errorf("requested period contains no working days: %w", engine.ErrInvalidDateRange)
	}

	// A request may span a year boundary; each year's quota is checked
	// against the portion of the request falling inside it.
	var sameType []engine.LeaveInterval
	for _, iv := range intervals {
		if iv.TypeID == leaveType.ID && iv.ID != excludeID {
			sameType = append(sameType, iv)
		}
	}
	candidate := engine.Period{Start: start, End: end}
	for year := start.Year(); year <= end.Year(); year++ {
		clipped := candidate.Clip(engine.CalendarYear(year))
		cost := engine.PeriodCost(cfg, clipped, holidays)
		remaining := engine.RemainingDays(cfg, leaveType, sameType, year, holidays)
		if cost.GreaterThan(remaining) {
			return &engine.InsufficientLeaveDaysError{
				UserID:      userID,
				LeaveTypeID: leaveType.ID,
				Requested:   cost,
				Remaining:   remaining,
			}
		}
	}
	return nil
}

// Reschedule moves a pending request to a new period, re-running the
// overlap and balance checks with the request itself excluded.
func (s *Service) Reschedule(ctx context.Context, requestID string, start, end engine.Date) (*workforce.LeaveRequest, error) {
	if end.Before(start) {
		return nil, engine.ErrInvalidDateRange
	}

	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != engine.LeavePending {
		return nil, fmt.Errorf("can only reschedule pending requests, current status: %s", request.Status)
	}

	leaveType, err := s.Types.GetLeaveType(ctx, request.TypeID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Requests.ListRequestsByUser(ctx, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing requests: %w", err)
	}

	if err := s.validatePeriod(ctx, request.UserID, leaveType, existing, start, end, request.ID); err != nil {
		return nil, err
	}

	request.Start = start
	request.End = end
	request.UpdatedAt = s.now()
	if err := s.Requests.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	return &request, nil
}

// Approve moves a pending request to Approved.
func (s *Service) Approve(ctx context.Context, requestID, approverID string) (*workforce.LeaveRequest, error) {
	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != engine.LeavePending {
		return nil, fmt.Errorf("can only approve pending requests, current status: %s", request.Status)
	}

	now := s.now()
	request.Status = engine.LeaveApproved
	request.ApprovedBy = &approverID
	request.ApprovedAt = &now
	request.UpdatedAt = now

	if err := s.Requests.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, approverID, workforce.AuditLeaveApproved, request.ID, nil); err != nil {
		return nil, err
	}
	return &request, nil
}

// Reject moves a pending request to Rejected, releasing its days.
func (s *Service) Reject(ctx context.Context, requestID, rejecterID, reason string) (*workforce.LeaveRequest, error) {
	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != engine.LeavePending {
		return nil, fmt.Errorf("can only reject pending requests, current status: %s", request.Status)
	}

	request.Status = engine.LeaveRejected
	request.RejectionReason = &reason
	request.UpdatedAt = s.now()

	if err := s.Requests.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, rejecterID, workforce.AuditLeaveRejected, request.ID, map[string]string{"reason": reason}); err != nil {
		return nil, err
	}
	return &request, nil
}

// Cancel withdraws a pending or approved request.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string) (*workforce.LeaveRequest, error) {
	request, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, fmt.Errorf("cannot cancel a request in status %s", request.Status)
	}

	request.Status = engine.LeaveCancelled
	request.UpdatedAt = s.now()

	if err := s.Requests.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, actorID, workforce.AuditLeaveCancelled, request.ID, nil); err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Service) audit(ctx context.Context, actorID string, action workforce.AuditAction, subjectID string, details map[string]string) error {
	if s.Audit == nil {
		return nil
	}
	return s.Audit.AppendAudit(ctx, workforce.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		ActorID:   actorID,
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
	})
}

// =============================================================================
// BALANCE VIEW - What the user sees
// =============================================================================

type BalanceView struct {
	UserID    string
	TypeID    string
	Year      int
	MaxDays   string
	Consumed  string
	Remaining string
}

// Balance computes the remaining-days view for a user, type and year.
func (s *Service) Balance(ctx context.Context, userID, typeID string, year int) (*BalanceView, error) {
	if _, err := s.Users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	leaveType, err := s.Types.GetLeaveType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	requests, err := s.Requests.ListRequestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	var sameType []engine.LeaveInterval
	for _, r := range requests {
		if r.TypeID == typeID {
			sameType = append(sameType, r.Interval())
		}
	}

	yearPeriod := engine.CalendarYear(year)
	holidays, err := s.holidaysFor(ctx, yearPeriod.Start, yearPeriod.End)
	if err != nil {
		return nil, err
	}

	cfg := s.Calendar.Load()
	consumed := engine.ConsumedDays(cfg, sameType, yearPeriod, holidays)
	remaining := engine.RemainingDays(cfg, leaveType, sameType, year, holidays)

	return &BalanceView{
		UserID:    userID,
		TypeID:    typeID,
		Year:      year,
		MaxDays:   leaveType.MaxDays.String(),
		Consumed:  consumed.String(),
		Remaining: remaining.String(),
	}, nil
}

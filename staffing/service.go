/*
Package staffing manages project assignments against employee capacity.

PURPOSE:
  Before an allocation row is written, the engine's capacity check runs
  over the employee's current allocations with the employment-type
  weighting applied. A failed check becomes a CapacityError; the store's
  UNIQUE(user_id, project_id) constraint keeps the one-row-per-project
  invariant authoritative under concurrent saves.

SEE ALSO:
  - engine/capacity.go: TotalAvailability / EffectiveAllocation /
    ValidateAssignment
*/
package staffing

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

type ProjectStore interface {
	GetProject(ctx context.Context, id string) (workforce.Project, error)
}

type AllocationStore interface {
	ListAllocationsByUser(ctx context.Context, userID string) ([]engine.Allocation, error)

	// SaveAllocation inserts or replaces the (user, project) row.
	SaveAllocation(ctx context.Context, a engine.Allocation) error

	DeleteAllocation(ctx context.Context, userID, projectID string) error
}

type AuditLog interface {
	AppendAudit(ctx context.Context, entry workforce.AuditEntry) error
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Users       UserStore
	Projects    ProjectStore
	Allocations AllocationStore
	Audit       AuditLog

	// Clock is swappable for tests; defaults to time.Now.
	Clock func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Assign creates or updates a project allocation after validating that it
// fits the employee's remaining capacity. The update path excludes the
// project's existing allocation from the check, so lowering an allocation
// always succeeds.
func (s *Service) Assign(ctx context.Context, actorID, userID, projectID string, percent float64) (*engine.Allocation, error) {
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("%.2f: %w", percent, engine.ErrInvalidPercentage)
	}

	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	existing, err := s.Allocations.ListAllocationsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	if !engine.ValidateAssignment(user.EmploymentType, existing, percent, projectID) {
		return nil, &engine.CapacityError{
			UserID:    user.ID,
			ProjectID: projectID,
			Requested: percent,
			Remaining: engine.RemainingAvailability(user.EmploymentType, existing),
		}
	}

	allocation := engine.Allocation{UserID: user.ID, ProjectID: projectID, Percent: percent}
	if err := s.Allocations.SaveAllocation(ctx, allocation); err != nil {
		return nil, err
	}

	if err := s.audit(ctx, actorID, workforce.AuditAssignmentSaved, user.ID, map[string]string{
		"project": projectID,
		"percent": fmt.Sprintf("%.2f", percent),
	}); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// Unassign removes a user's allocation on a project.
func (s *Service) Unassign(ctx context.Context, actorID, userID, projectID string) error {
	if err := s.Allocations.DeleteAllocation(ctx, userID, projectID); err != nil {
		return err
	}
	return s.audit(ctx, actorID, workforce.AuditAssignmentRemoved, userID, map[string]string{
		"project": projectID,
	})
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
// AVAILABILITY VIEW
// =============================================================================

type AvailabilityView struct {
	UserID         string
	EmploymentType engine.EmploymentType
	Total          float64
	Remaining      float64
	Allocations    []engine.Allocation
}

// Availability returns the user's total and remaining FTE capacity.
func (s *Service) Availability(ctx context.Context, userID string) (*AvailabilityView, error) {
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.Allocations.ListAllocationsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	return &AvailabilityView{
		UserID:         user.ID,
		EmploymentType: user.EmploymentType,
		Total:          engine.TotalAvailability(user.EmploymentType),
		Remaining:      engine.RemainingAvailability(user.EmploymentType, allocations),
		Allocations:    allocations,
	}, nil
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API contract, decoupled from the domain types.
  Dates cross the wire as "YYYY-MM-DD"; instants as RFC3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ManagerID      string `json:"manager_id,omitempty"`
	EmploymentType string `json:"employment_type"`
}

func toUserDTO(u workforce.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ManagerID:      u.ManagerID,
		EmploymentType: string(u.EmploymentType),
	}
}

// =============================================================================
// LEAVE
// =============================================================================

type SubmitLeaveRequest struct {
	UserID string `json:"user_id"`
	TypeID string `json:"type_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

type RescheduleLeaveRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

type LeaveRequestDTO struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	TypeID          string  `json:"type_id"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

func toLeaveRequestDTO(r workforce.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:              r.ID,
		UserID:          r.UserID,
		TypeID:          r.TypeID,
		Start:           r.Start.String(),
		End:             r.End.String(),
		Status:          string(r.Status),
		Reason:          r.Reason,
		ApprovedBy:      r.ApprovedBy,
		RejectionReason: r.RejectionReason,
	}
}

type LeaveTypeDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	MaxDays string `json:"max_days"`
	Paid    bool   `json:"paid"`
}

type BalanceDTO struct {
	UserID    string `json:"user_id"`
	TypeID    string `json:"type_id"`
	Year      int    `json:"year"`
	MaxDays   string `json:"max_days"`
	Consumed  string `json:"consumed"`
	Remaining string `json:"remaining"`
}

// =============================================================================
// STAFFING
// =============================================================================

type AssignRequest struct {
	UserID    string  `json:"user_id"`
	ProjectID string  `json:"project_id"`
	Percent   float64 `json:"percent"`
}

type AllocationDTO struct {
	ProjectID string  `json:"project_id"`
	Percent   float64 `json:"percent"`
}

type AvailabilityDTO struct {
	UserID         string          `json:"user_id"`
	EmploymentType string          `json:"employment_type"`
	Total          float64         `json:"total_fte"`
	Remaining      float64         `json:"remaining_fte"`
	Allocations    []AllocationDTO `json:"allocations"`
}

func toAllocationDTOs(allocations []engine.Allocation) []AllocationDTO {
	dtos := make([]AllocationDTO, 0, len(allocations))
	for _, a := range allocations {
		dtos = append(dtos, AllocationDTO{ProjectID: a.ProjectID, Percent: a.Percent})
	}
	return dtos
}

// =============================================================================
// DELEGATIONS
// =============================================================================

type CreateDelegationRequest struct {
	SecondManagerID   string `json:"second_manager_id"`
	ReplacedManagerID string `json:"replaced_manager_id"`
	StartsAt          string `json:"starts_at"`
	EndsAt            string `json:"ends_at"`
}

type DelegationDTO struct {
	ID                string `json:"id"`
	SecondManagerID   string `json:"second_manager_id"`
	ReplacedManagerID string `json:"replaced_manager_id"`
	StartsAt          string `json:"starts_at"`
	EndsAt            string `json:"ends_at"`
	Status            string `json:"status"`
}

// =============================================================================
// HOLIDAYS AND CALENDAR
// =============================================================================

type CreateHolidayRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

type HolidayDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

type ReloadCalendarRequest struct {
	WeekendDays []string `json:"weekend_days"`
}

type CalendarDTO struct {
	WeekendDays []string `json:"weekend_days"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

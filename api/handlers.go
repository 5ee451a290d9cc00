/*
handlers.go - HTTP request handlers

PURPOSE:
  Translates HTTP requests into service calls and domain results back into
  JSON. Handlers stay thin: parsing, authorization, one service call, one
  response.

ERROR MAPPING:
  - Client errors (bad dates, overlaps, quota, capacity) -> 400/409
  - Not found -> 404
  - Authorization failures -> 401/403
  - Everything else -> 500 with a generic message

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/workforce-engine/authz"
	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/leave"
	"github.com/warp/workforce-engine/staffing"
	"github.com/warp/workforce-engine/store/sqlite"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// HANDLER
// =============================================================================

type Handler struct {
	Store    *sqlite.Store
	Leave    *leave.Service
	Staffing *staffing.Service
	Auth     *authz.Authorizer
	Tokens   *authz.TokenIssuer
	Calendar *engine.ConfigHolder
	Log      *logrus.Logger
}

func NewHandler(store *sqlite.Store, tokens *authz.TokenIssuer, calendar *engine.ConfigHolder, log *logrus.Logger) *Handler {
	return &Handler{
		Store: store,
		Leave: &leave.Service{
			Users:    store,
			Types:    store,
			Requests: store,
			Holidays: store,
			Audit:    store,
			Calendar: calendar,
		},
		Staffing: &staffing.Service{
			Users:       store,
			Projects:    store,
			Allocations: store,
			Audit:       store,
		},
		Auth: &authz.Authorizer{
			Users:       store,
			Delegations: store,
		},
		Tokens:   tokens,
		Calendar: calendar,
		Log:      log,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps domain errors to HTTP statuses. Internal errors are
// logged and returned without details.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrLeaveRequestOverlap):
		writeError(w, http.StatusConflict, "leave request overlaps an existing one", err)
	case errors.Is(err, engine.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity exceeded", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		h.Log.WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func parseDatePair(w http.ResponseWriter, startStr, endStr string) (engine.Date, engine.Date, bool) {
	start, err := engine.ParseDate(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err)
		return engine.Date{}, engine.Date{}, false
	}
	end, err := engine.ParseDate(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err)
		return engine.Date{}, engine.Date{}, false
	}
	return start, end, true
}

// =============================================================================
// AUTH
// =============================================================================

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if !authz.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.Log.WithError(err).Error("failed to issue token")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: user.ID, Name: user.Name})
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (h *Handler) listLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	dtos := make([]LeaveTypeDTO, 0, len(types))
	for _, lt := range types {
		dtos = append(dtos, LeaveTypeDTO{
			ID:      lt.ID,
			Name:    lt.Name,
			MaxDays: lt.MaxDays.String(),
			Paid:    lt.Paid,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (h *Handler) submitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	actor := sessionFrom(r.Context())
	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID {
		ok, err := h.Auth.CanAccessUser(r.Context(), actor.UserID, userID)
		if err != nil {
			h.handleError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, "cannot submit leave for this user", nil)
			return
		}
	}

	start, end, ok := parseDatePair(w, req.Start, req.End)
	if !ok {
		return
	}
	created, err := h.Leave.Submit(r.Context(), userID, req.TypeID, start, end, req.Reason)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(*created))
}

func (h *Handler) getLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if !h.requireAccess(w, r, req.UserID) {
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

func (h *Handler) listLeaveRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("user_id")

	var (
		requests []workforce.LeaveRequest
		err      error
	)
	if userID != "" {
		if !h.requireAccess(w, r, userID) {
			return
		}
		requests, err = h.Store.ListRequestsByUser(ctx, userID)
	} else {
		requests, err = h.Store.ListPendingRequests(ctx)
	}
	if err != nil {
		h.handleError(w, err)
		return
	}

	dtos := make([]LeaveRequestDTO, 0, len(requests))
	for _, req := range requests {
		dtos = append(dtos, toLeaveRequestDTO(req))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) rescheduleLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if !h.requireAccess(w, r, existing.UserID) {
		return
	}

	var req RescheduleLeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, end, ok := parseDatePair(w, req.Start, req.End)
	if !ok {
		return
	}
	updated, err := h.Leave.Reschedule(r.Context(), id, start, end)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

// requireManagerOf loads the request and checks the actor manages (directly
// or as an active delegate) the request's owner.
func (h *Handler) requireManagerOf(w http.ResponseWriter, r *http.Request, requestID string) (workforce.LeaveRequest, bool) {
	req, err := h.Store.GetRequest(r.Context(), requestID)
	if err != nil {
		h.handleError(w, err)
		return workforce.LeaveRequest{}, false
	}
	actor := sessionFrom(r.Context())
	owner, err := h.Store.GetUser(r.Context(), req.UserID)
	if err != nil {
		h.handleError(w, err)
		return workforce.LeaveRequest{}, false
	}
	ok, err := h.Auth.CanManage(r.Context(), actor.UserID, owner.ManagerID)
	if err != nil {
		h.handleError(w, err)
		return workforce.LeaveRequest{}, false
	}
	if !ok || actor.UserID == req.UserID {
		writeError(w, http.StatusForbidden, "only the user's manager can decide this request", nil)
		return workforce.LeaveRequest{}, false
	}
	return req, true
}

func (h *Handler) approveLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireManagerOf(w, r, id); !ok {
		return
	}
	actor := sessionFrom(r.Context())
	updated, err := h.Leave.Approve(r.Context(), id, actor.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

func (h *Handler) rejectLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireManagerOf(w, r, id); !ok {
		return
	}
	var req RejectLeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	actor := sessionFrom(r.Context())
	updated, err := h.Leave.Reject(r.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

func (h *Handler) cancelLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if !h.requireAccess(w, r, existing.UserID) {
		return
	}
	actor := sessionFrom(r.Context())
	updated, err := h.Leave.Cancel(r.Context(), id, actor.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*updated))
}

// =============================================================================
// BALANCE AND AVAILABILITY
// =============================================================================

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !h.requireAccess(w, r, userID) {
		return
	}
	typeID := r.URL.Query().Get("type_id")
	if typeID == "" {
		writeError(w, http.StatusBadRequest, "type_id query parameter is required", nil)
		return
	}
	year := engine.Today().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = parsed
	}

	view, err := h.Leave.Balance(r.Context(), userID, typeID, year)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:    view.UserID,
		TypeID:    view.TypeID,
		Year:      view.Year,
		MaxDays:   view.MaxDays,
		Consumed:  view.Consumed,
		Remaining: view.Remaining,
	})
}

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !h.requireAccess(w, r, userID) {
		return
	}
	view, err := h.Staffing.Availability(r.Context(), userID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityDTO{
		UserID:         view.UserID,
		EmploymentType: string(view.EmploymentType),
		Total:          view.Total,
		Remaining:      view.Remaining,
		Allocations:    toAllocationDTOs(view.Allocations),
	})
}

// =============================================================================
// PROJECT ASSIGNMENTS
// =============================================================================

func (h *Handler) saveAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	actor := sessionFrom(r.Context())
	if !h.requireManagerAccess(w, r, req.UserID) {
		return
	}
	allocation, err := h.Staffing.Assign(r.Context(), actor.UserID, req.UserID, req.ProjectID, req.Percent)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AllocationDTO{ProjectID: allocation.ProjectID, Percent: allocation.Percent})
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	projectID := r.URL.Query().Get("project_id")
	if userID == "" || projectID == "" {
		writeError(w, http.StatusBadRequest, "user_id and project_id query parameters are required", nil)
		return
	}
	actor := sessionFrom(r.Context())
	if !h.requireManagerAccess(w, r, userID) {
		return
	}
	if err := h.Staffing.Unassign(r.Context(), actor.UserID, userID, projectID); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// =============================================================================
// DELEGATIONS
// =============================================================================

func (h *Handler) createDelegation(w http.ResponseWriter, r *http.Request) {
	var req CreateDelegationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid starts_at", err)
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ends_at", err)
		return
	}

	actor := sessionFrom(r.Context())
	if actor.UserID != req.ReplacedManagerID {
		writeError(w, http.StatusForbidden, "only the replaced manager can delegate their reports", nil)
		return
	}
	if _, err := h.Store.GetUser(r.Context(), req.SecondManagerID); err != nil {
		h.handleError(w, err)
		return
	}

	d := engine.Delegation{
		ID:                uuid.NewString(),
		SecondManagerID:   req.SecondManagerID,
		ReplacedManagerID: req.ReplacedManagerID,
		StartsAt:          startsAt,
		EndsAt:            endsAt,
	}
	if err := h.Store.CreateDelegation(r.Context(), d); err != nil {
		h.handleError(w, err)
		return
	}
	_ = h.Store.AppendAudit(r.Context(), workforce.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actor.UserID,
		Action:    workforce.AuditDelegationCreated,
		SubjectID: d.ID,
		Details: map[string]string{
			"second_manager":   d.SecondManagerID,
			"replaced_manager": d.ReplacedManagerID,
		},
	})
	writeJSON(w, http.StatusCreated, h.toDelegationDTO(d))
}

func (h *Handler) listDelegations(w http.ResponseWriter, r *http.Request) {
	delegations, err := h.Store.ListDelegations(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	dtos := make([]DelegationDTO, 0, len(delegations))
	for _, d := range delegations {
		dtos = append(dtos, h.toDelegationDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) toDelegationDTO(d engine.Delegation) DelegationDTO {
	return DelegationDTO{
		ID:                d.ID,
		SecondManagerID:   d.SecondManagerID,
		ReplacedManagerID: d.ReplacedManagerID,
		StartsAt:          d.StartsAt.Format(time.RFC3339),
		EndsAt:            d.EndsAt.Format(time.RFC3339),
		Status:            string(d.StatusAt(time.Now().UTC())),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (h *Handler) createHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}
	holiday := workforce.Holiday{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Date:      date,
		Recurring: req.Recurring,
	}
	if err := h.Store.CreateHoliday(r.Context(), holiday); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

func (h *Handler) listHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		dtos = append(dtos, toHolidayDTO(holiday))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) deleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func toHolidayDTO(h workforce.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Name: h.Name, Date: h.Date.String(), Recurring: h.Recurring}
}

// =============================================================================
// CALENDAR ADMINISTRATION
// =============================================================================

func (h *Handler) getCalendar(w http.ResponseWriter, r *http.Request) {
	cfg := h.Calendar.Load()
	names := make([]string, 0, cfg.WeekendDayCount())
	for _, day := range cfg.WeekendDays() {
		names = append(names, day.String())
	}
	writeJSON(w, http.StatusOK, CalendarDTO{WeekendDays: names})
}

func (h *Handler) reloadCalendar(w http.ResponseWriter, r *http.Request) {
	var req ReloadCalendarRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cfg, err := engine.ParseCalendarConfig(req.WeekendDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid weekend days", err)
		return
	}
	h.Calendar.Store(cfg)

	actor := sessionFrom(r.Context())
	_ = h.Store.AppendAudit(r.Context(), workforce.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actor.UserID,
		Action:    workforce.AuditCalendarReloaded,
		SubjectID: "calendar",
		Details:   map[string]string{"weekend_days": strconv.Itoa(cfg.WeekendDayCount())},
	})
	h.Log.WithField("weekend_days", req.WeekendDays).Info("calendar configuration reloaded")
	h.getCalendar(w, r)
}

// =============================================================================
// ACCESS CHECKS
// =============================================================================

// requireAccess allows the user themselves, their manager, or an active
// delegate of their manager.
func (h *Handler) requireAccess(w http.ResponseWriter, r *http.Request, targetUserID string) bool {
	actor := sessionFrom(r.Context())
	ok, err := h.Auth.CanAccessUser(r.Context(), actor.UserID, targetUserID)
	if err != nil {
		h.handleError(w, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "access denied", nil)
		return false
	}
	return true
}

// requireManagerAccess is requireAccess minus the self case.
func (h *Handler) requireManagerAccess(w http.ResponseWriter, r *http.Request, targetUserID string) bool {
	actor := sessionFrom(r.Context())
	target, err := h.Store.GetUser(r.Context(), targetUserID)
	if err != nil {
		h.handleError(w, err)
		return false
	}
	ok, err := h.Auth.CanManage(r.Context(), actor.UserID, target.ManagerID)
	if err != nil {
		h.handleError(w, err)
		return false
	}
	if !ok || actor.UserID == targetUserID {
		writeError(w, http.StatusForbidden, "manager access required", nil)
		return false
	}
	return true
}

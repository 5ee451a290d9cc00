/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces consumed by the leave, staffing and authz services.

PURPOSE:
  One store, many narrow interfaces. The services declare what they need
  (leave.RequestStore, staffing.AllocationStore, authz.DelegationStore,
  ...) and *Store satisfies all of them.

KEY TABLES:
  users:               employment profile + credentials + manager link
  leave_types:         yearly quota per leave category
  leave_requests:      inclusive date ranges with lifecycle status
  holidays:            public holiday definitions (recurring or fixed)
  projects:            staffing targets
  project_allocations: UNIQUE(user_id, project_id) - one row per project
  manager_delegations: time-bounded authority windows
  audit_log:           append-only action trail

CONCURRENCY CONTRACT:
  Service-level validation is a fast-path pre-check; the commit is the
  authority. InsertRequest re-runs the overlap query inside the same
  transaction as the write so the loser of a concurrent submission race
  fails with ErrLeaveRequestOverlap, and SaveAllocation upserts through
  the unique index. SQLite is opened in WAL mode; a mutex serializes
  writers within the process.

DATE ENCODING:
  Calendar dates are stored as "2006-01-02" TEXT so the closed-interval
  overlap predicate works with plain string comparison. Instants are
  RFC3339 TEXT.

SEE ALSO:
  - leave/service.go, staffing/service.go, authz/authz.go: the consumers
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/workforce"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Writes are serialized by s.mu; a single connection also keeps
	// ":memory:" databases from vanishing between pooled connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		manager_id TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT 'full_time',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		max_days TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	);

	-- Overlap re-check hot path: non-terminal requests per user by range.
	CREATE INDEX IF NOT EXISTS idx_leave_requests_user_range
		ON leave_requests(user_id, start_date, end_date)
		WHERE status IN ('pending', 'approved');

	CREATE INDEX IF NOT EXISTS idx_leave_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One allocation row per (user, project).
	CREATE TABLE IF NOT EXISTS project_allocations (
		user_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		percent REAL NOT NULL,
		PRIMARY KEY (user_id, project_id),
		CHECK (percent >= 0 AND percent <= 100)
	);

	CREATE TABLE IF NOT EXISTS manager_delegations (
		id TEXT PRIMARY KEY,
		second_manager_id TEXT NOT NULL,
		replaced_manager_id TEXT NOT NULL,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		CHECK (ends_at > starts_at),
		UNIQUE (second_manager_id, replaced_manager_id, starts_at)
	);

	CREATE INDEX IF NOT EXISTS idx_delegations_replaced
		ON manager_delegations(replaced_manager_id, starts_at);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		details_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_subject
		ON audit_log(subject_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u workforce.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, manager_id, employment_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.ManagerID, string(u.EmploymentType),
		u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (workforce.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (workforce.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (workforce.User, error) {
	var u workforce.User
	var et, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, manager_id, employment_type, created_at
		FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ManagerID, &et, &createdAt)
	if err == sql.ErrNoRows {
		return workforce.User{}, fmt.Errorf("user: %w", engine.ErrEntryNotFound)
	}
	if err != nil {
		return workforce.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	u.EmploymentType = engine.EmploymentType(et)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]workforce.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, manager_id, employment_type, created_at
		FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []workforce.User
	for rows.Next() {
		var u workforce.User
		var et, createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ManagerID, &et, &createdAt); err != nil {
			return nil, err
		}
		u.EmploymentType = engine.EmploymentType(et)
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) CreateLeaveType(ctx context.Context, lt engine.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paid := 0
	if lt.Paid {
		paid = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (id, name, max_days, paid) VALUES (?, ?, ?, ?)`,
		lt.ID, lt.Name, lt.MaxDays.String(), paid)
	if err != nil {
		return fmt.Errorf("failed to insert leave type: %w", err)
	}
	return nil
}

func (s *Store) GetLeaveType(ctx context.Context, id string) (engine.LeaveType, error) {
	var lt engine.LeaveType
	var maxDays string
	var paid int

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, max_days, paid FROM leave_types WHERE id = ?`, id).
		Scan(&lt.ID, &lt.Name, &maxDays, &paid)
	if err == sql.ErrNoRows {
		return engine.LeaveType{}, fmt.Errorf("leave type: %w", engine.ErrEntryNotFound)
	}
	if err != nil {
		return engine.LeaveType{}, fmt.Errorf("failed to load leave type: %w", err)
	}

	lt.MaxDays, err = decimal.NewFromString(maxDays)
	if err != nil {
		return engine.LeaveType{}, fmt.Errorf("corrupt max_days for leave type %s: %w", id, err)
	}
	lt.Paid = paid != 0
	return lt, nil
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]engine.LeaveType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, max_days, paid FROM leave_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	defer rows.Close()

	var types []engine.LeaveType
	for rows.Next() {
		var lt engine.LeaveType
		var maxDays string
		var paid int
		if err := rows.Scan(&lt.ID, &lt.Name, &maxDays, &paid); err != nil {
			return nil, err
		}
		if lt.MaxDays, err = decimal.NewFromString(maxDays); err != nil {
			return nil, fmt.Errorf("corrupt max_days for leave type %s: %w", lt.ID, err)
		}
		lt.Paid = paid != 0
		types = append(types, lt)
	}
	return types, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// InsertRequest writes the request and re-checks the overlap invariant in
// the same transaction. Two concurrent submissions can both pass the
// service-level check; the second commit fails here.
func (s *Store) InsertRequest(ctx context.Context, req workforce.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var conflicts int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leave_requests
		WHERE user_id = ?
		  AND status IN ('pending', 'approved')
		  AND start_date <= ?
		  AND end_date >= ?`,
		req.UserID, req.End.String(), req.Start.String()).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to re-check overlap: %w", err)
	}
	if conflicts > 0 {
		return fmt.Errorf("request %s: %w", req.ID, engine.ErrLeaveRequestOverlap)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leave_requests
			(id, user_id, type_id, start_date, end_date, status, reason,
			 approved_by, approved_at, rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.UserID, req.TypeID, req.Start.String(), req.End.String(),
		string(req.Status), req.Reason,
		req.ApprovedBy, nullableTime(req.ApprovedAt), req.RejectionReason,
		req.CreatedAt.UTC().Format(time.RFC3339), req.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}

	return tx.Commit()
}

// UpdateRequest carries the same in-transaction overlap re-check as
// InsertRequest whenever the row stays in the active set: a reschedule
// racing a submission must lose at commit time, not corrupt the store.
func (s *Store) UpdateRequest(ctx context.Context, req workforce.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !req.Status.Terminal() {
		var conflicts int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM leave_requests
			WHERE user_id = ?
			  AND id != ?
			  AND status IN ('pending', 'approved')
			  AND start_date <= ?
			  AND end_date >= ?`,
			req.UserID, req.ID, req.End.String(), req.Start.String()).Scan(&conflicts)
		if err != nil {
			return fmt.Errorf("failed to re-check overlap: %w", err)
		}
		if conflicts > 0 {
			return fmt.Errorf("request %s: %w", req.ID, engine.ErrLeaveRequestOverlap)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE leave_requests
		SET start_date = ?, end_date = ?, status = ?, reason = ?,
		    approved_by = ?, approved_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`,
		req.Start.String(), req.End.String(), string(req.Status), req.Reason,
		req.ApprovedBy, nullableTime(req.ApprovedAt), req.RejectionReason,
		req.UpdatedAt.UTC().Format(time.RFC3339), req.ID)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("leave request: %w", engine.ErrEntryNotFound)
	}
	return tx.Commit()
}

func (s *Store) GetRequest(ctx context.Context, id string) (workforce.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type_id, start_date, end_date, status, reason,
		       approved_by, approved_at, rejection_reason, created_at, updated_at
		FROM leave_requests WHERE id = ?`, id)

	req, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return workforce.LeaveRequest{}, fmt.Errorf("leave request: %w", engine.ErrEntryNotFound)
	}
	if err != nil {
		return workforce.LeaveRequest{}, fmt.Errorf("failed to load leave request: %w", err)
	}
	return req, nil
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]workforce.LeaveRequest, error) {
	return s.listRequests(ctx, "user_id = ?", userID)
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]workforce.LeaveRequest, error) {
	return s.listRequests(ctx, "status = ?", string(engine.LeavePending))
}

func (s *Store) listRequests(ctx context.Context, where string, arg any) ([]workforce.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type_id, start_date, end_date, status, reason,
		       approved_by, approved_at, rejection_reason, created_at, updated_at
		FROM leave_requests WHERE `+where+` ORDER BY start_date`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []workforce.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(scan func(...any) error) (workforce.LeaveRequest, error) {
	var req workforce.LeaveRequest
	var start, end, status, createdAt, updatedAt string
	var approvedBy, approvedAt, rejectionReason sql.NullString

	err := scan(&req.ID, &req.UserID, &req.TypeID, &start, &end, &status, &req.Reason,
		&approvedBy, &approvedAt, &rejectionReason, &createdAt, &updatedAt)
	if err != nil {
		return workforce.LeaveRequest{}, err
	}

	if req.Start, err = engine.ParseDate(start); err != nil {
		return workforce.LeaveRequest{}, fmt.Errorf("corrupt start_date: %w", err)
	}
	if req.End, err = engine.ParseDate(end); err != nil {
		return workforce.LeaveRequest{}, fmt.Errorf("corrupt end_date: %w", err)
	}
	req.Status = engine.LeaveStatus(status)
	if approvedBy.Valid {
		req.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		if t, err := time.Parse(time.RFC3339, approvedAt.String); err == nil {
			req.ApprovedAt = &t
		}
	}
	if rejectionReason.Valid {
		req.RejectionReason = &rejectionReason.String
	}
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	req.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return req, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) CreateHoliday(ctx context.Context, h workforce.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recurring := 0
	if h.Recurring {
		recurring = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, name, date, recurring) VALUES (?, ?, ?, ?)`,
		h.ID, h.Name, h.Date.String(), recurring)
	if err != nil {
		return fmt.Errorf("failed to insert holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holiday: %w", engine.ErrEntryNotFound)
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context) ([]workforce.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, date, recurring FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []workforce.Holiday
	for rows.Next() {
		var h workforce.Holiday
		var date string
		var recurring int
		if err := rows.Scan(&h.ID, &h.Name, &date, &recurring); err != nil {
			return nil, err
		}
		if h.Date, err = engine.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt holiday date: %w", err)
		}
		h.Recurring = recurring != 0
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// PROJECTS AND ALLOCATIONS
// =============================================================================

func (s *Store) CreateProject(ctx context.Context, p workforce.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (workforce.Project, error) {
	var p workforce.Project
	var createdAt string

	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &createdAt)
	if err == sql.ErrNoRows {
		return workforce.Project{}, fmt.Errorf("project: %w", engine.ErrEntryNotFound)
	}
	if err != nil {
		return workforce.Project{}, fmt.Errorf("failed to load project: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// SaveAllocation upserts through the (user_id, project_id) primary key,
// which is what keeps the one-allocation-per-project invariant under
// concurrent saves.
func (s *Store) SaveAllocation(ctx context.Context, a engine.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_allocations (user_id, project_id, percent)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, project_id) DO UPDATE SET percent = excluded.percent`,
		a.UserID, a.ProjectID, a.Percent)
	if err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllocation(ctx context.Context, userID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM project_allocations WHERE user_id = ? AND project_id = ?`,
		userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("allocation: %w", engine.ErrEntryNotFound)
	}
	return nil
}

func (s *Store) ListAllocationsByUser(ctx context.Context, userID string) ([]engine.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, project_id, percent FROM project_allocations
		WHERE user_id = ? ORDER BY project_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []engine.Allocation
	for rows.Next() {
		var a engine.Allocation
		if err := rows.Scan(&a.UserID, &a.ProjectID, &a.Percent); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// =============================================================================
// MANAGER DELEGATIONS
// =============================================================================

func (s *Store) CreateDelegation(ctx context.Context, d engine.Delegation) error {
	if !d.EndsAt.After(d.StartsAt) {
		return fmt.Errorf("delegation window: %w", engine.ErrInvalidDateRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manager_delegations (id, second_manager_id, replaced_manager_id, starts_at, ends_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.SecondManagerID, d.ReplacedManagerID,
		d.StartsAt.UTC().Format(time.RFC3339), d.EndsAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert delegation: %w", err)
	}
	return nil
}

// ListDelegations returns the snapshot ordered by start instant then id.
// ActiveDelegateFor's first-match tie-break is defined over this order.
func (s *Store) ListDelegations(ctx context.Context) ([]engine.Delegation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, second_manager_id, replaced_manager_id, starts_at, ends_at
		FROM manager_delegations ORDER BY starts_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	defer rows.Close()

	var delegations []engine.Delegation
	for rows.Next() {
		var d engine.Delegation
		var startsAt, endsAt string
		if err := rows.Scan(&d.ID, &d.SecondManagerID, &d.ReplacedManagerID, &startsAt, &endsAt); err != nil {
			return nil, err
		}
		if d.StartsAt, err = time.Parse(time.RFC3339, startsAt); err != nil {
			return nil, fmt.Errorf("corrupt starts_at: %w", err)
		}
		if d.EndsAt, err = time.Parse(time.RFC3339, endsAt); err != nil {
			return nil, fmt.Errorf("corrupt ends_at: %w", err)
		}
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry workforce.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var details any
	if entry.Details != nil {
		blob, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(blob)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, subject_id, details_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.RFC3339),
		entry.ActorID, string(entry.Action), entry.SubjectID, details)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAuditBySubject(ctx context.Context, subjectID string) ([]workforce.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, actor_id, action, subject_id, details_json
		FROM audit_log WHERE subject_id = ? ORDER BY timestamp, rowid`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []workforce.AuditEntry
	for rows.Next() {
		var e workforce.AuditEntry
		var ts, action string
		var details sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &action, &e.SubjectID, &details); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		e.Action = workforce.AuditAction(action)
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("corrupt audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, r Request) (Request, error) {
	r.ID = uuid.NewString()
	r.Status = StatusPending
	err := s.DB.QueryRow(ctx, `INSERT INTO leave_requests
			(id, employee_id, leave_type, start_date, end_date, days_requested, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		r.ID, r.EmployeeID, r.LeaveType, r.StartDate, r.EndDate, r.DaysRequested, r.Reason, r.Status).
		Scan(&r.CreatedAt)
	if err != nil {
		return Request{}, fmt.Errorf("create leave request: %w", err)
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (Request, error) {
	var r Request
	err := s.DB.QueryRow(ctx, `SELECT id, employee_id, leave_type, start_date, end_date, days_requested,
			reason, status, notes, COALESCE(decided_by::text, ''), decided_at, created_at
		FROM leave_requests WHERE id = $1`, id).
		Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.DaysRequested,
			&r.Reason, &r.Status, &r.Notes, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("get leave request: %w", err)
	}
	return r, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, employee_id, leave_type, start_date, end_date, days_requested,
			reason, status, notes, COALESCE(decided_by::text, ''), decided_at, created_at
		FROM leave_requests
		WHERE employee_id = $1
		ORDER BY created_at DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.DaysRequested,
			&r.Reason, &r.Status, &r.Notes, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListAllWithEmployee returns every request joined with the requester,
// pending rows first then newest first, for the HR queue.
func (s *Store) ListAllWithEmployee(ctx context.Context) ([]RequestWithEmployee, error) {
	rows, err := s.DB.Query(ctx, `SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
			lr.days_requested, lr.reason, lr.status, lr.notes, COALESCE(lr.decided_by::text, ''), lr.decided_at, lr.created_at,
			u.name, u.email, u.department
		FROM leave_requests lr
		JOIN users u ON u.id = lr.employee_id
		ORDER BY (lr.status = 'pending') DESC, lr.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []RequestWithEmployee
	for rows.Next() {
		var r RequestWithEmployee
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate,
			&r.DaysRequested, &r.Reason, &r.Status, &r.Notes, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt,
			&r.EmployeeName, &r.EmployeeEmail, &r.Department); err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// Decide moves a pending request to approved or denied and, on approval
// of annual or sick leave, charges the days against the employee's used
// counter in the same transaction.
func (s *Store) Decide(ctx context.Context, id, deciderID, status, notes string) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var r Request
	err = tx.QueryRow(ctx, `UPDATE leave_requests
		SET status = $1, notes = $2, decided_by = $3, decided_at = now()
		WHERE id = $4 AND status = 'pending'
		RETURNING id, employee_id, leave_type, start_date, end_date, days_requested,
			reason, status, notes, COALESCE(decided_by::text, ''), decided_at, created_at`,
		status, notes, deciderID, id).
		Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.DaysRequested,
			&r.Reason, &r.Status, &r.Notes, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the id is unknown or the request was already decided.
		if _, lookupErr := s.GetByID(ctx, id); lookupErr != nil {
			return Request{}, lookupErr
		}
		return Request{}, ErrAlreadyFinal
	}
	if err != nil {
		return Request{}, fmt.Errorf("decide leave request: %w", err)
	}

	if status == StatusApproved {
		var column string
		switch r.LeaveType {
		case TypeAnnual:
			column = "annual_leave_used"
		case TypeSick:
			column = "sick_leave_used"
		}
		if column != "" {
			_, err = tx.Exec(ctx, `UPDATE users SET `+column+` = `+column+` + $1 WHERE id = $2`,
				r.DaysRequested, r.EmployeeID)
			if err != nil {
				return Request{}, fmt.Errorf("charge leave balance: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

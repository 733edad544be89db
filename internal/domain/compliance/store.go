package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	var r Request
	err := s.DB.QueryRow(ctx, `SELECT id, form_type, title, description, due_date, COALESCE(created_by::text, ''), created_at
		FROM compliance_requests WHERE id = $1`, id).
		Scan(&r.ID, &r.FormType, &r.Title, &r.Description, &r.DueDate, &r.CreatedBy, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

// ListOpenRequests returns requests whose due date has not passed, newest
// first.
func (s *Store) ListOpenRequests(ctx context.Context, now time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, form_type, title, description, due_date, COALESCE(created_by::text, ''), created_at
		FROM compliance_requests
		WHERE due_date >= $1::date
		ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, fmt.Errorf("list open requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.FormType, &r.Title, &r.Description, &r.DueDate, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListAllRequests returns every request, overdue included, newest
// first. The HR management view tracks overdue forms so it must not
// filter on the due date.
func (s *Store) ListAllRequests(ctx context.Context) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, form_type, title, description, due_date, COALESCE(created_by::text, ''), created_at
		FROM compliance_requests
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.FormType, &r.Title, &r.Description, &r.DueDate, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, r Request) (Request, error) {
	r.ID = uuid.NewString()
	err := s.DB.QueryRow(ctx, `INSERT INTO compliance_requests (id, form_type, title, description, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
		RETURNING created_at`,
		r.ID, r.FormType, r.Title, r.Description, r.DueDate, r.CreatedBy).Scan(&r.CreatedAt)
	if err != nil {
		return Request{}, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

func (s *Store) InsertSubmission(ctx context.Context, sub Submission) (Submission, error) {
	sub.ID = uuid.NewString()
	sub.Status = StatusSubmitted
	err := s.DB.QueryRow(ctx, `INSERT INTO compliance_submissions (id, request_id, employee_id, file_name, file_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at`,
		sub.ID, sub.RequestID, sub.EmployeeID, sub.FileName, sub.FileURL, sub.Status).Scan(&sub.SubmittedAt)
	if err != nil {
		return Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

// SubmittedRequestIDs returns the set of request IDs an employee has
// submitted for. The employee dashboard uses presence in this set as the
// definition of done.
func (s *Store) SubmittedRequestIDs(ctx context.Context, employeeID string) (map[string]struct{}, error) {
	rows, err := s.DB.Query(ctx, `SELECT DISTINCT request_id FROM compliance_submissions WHERE employee_id = $1`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list submitted requests: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan request id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// SubmitterIDs returns the distinct employees who submitted for a request.
func (s *Store) SubmitterIDs(ctx context.Context, requestID string) (map[string]struct{}, error) {
	rows, err := s.DB.Query(ctx, `SELECT DISTINCT employee_id FROM compliance_submissions WHERE request_id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list submitters: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan employee id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// CountDistinctSubmitters counts employees with at least one submission
// for the request. Duplicate submissions count once.
func (s *Store) CountDistinctSubmitters(ctx context.Context, requestID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(DISTINCT employee_id) FROM compliance_submissions WHERE request_id = $1`, requestID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submitters: %w", err)
	}
	return n, nil
}

func (s *Store) ListSubmissionsForRequest(ctx context.Context, requestID string) ([]SubmissionWithEmployee, error) {
	rows, err := s.DB.Query(ctx, `SELECT cs.id, cs.request_id, cs.employee_id, cs.file_name, cs.file_url, cs.status, cs.submitted_at,
			u.name, u.email
		FROM compliance_submissions cs
		JOIN users u ON u.id = cs.employee_id
		WHERE cs.request_id = $1
		ORDER BY cs.submitted_at DESC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []SubmissionWithEmployee
	for rows.Next() {
		var sub SubmissionWithEmployee
		if err := rows.Scan(&sub.ID, &sub.RequestID, &sub.EmployeeID, &sub.FileName, &sub.FileURL, &sub.Status, &sub.SubmittedAt,
			&sub.EmployeeName, &sub.EmployeeEmail); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) ListSubmissionsByEmployee(ctx context.Context, employeeID string) ([]Submission, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, request_id, employee_id, file_name, file_url, status, submitted_at
		FROM compliance_submissions
		WHERE employee_id = $1
		ORDER BY submitted_at DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.RequestID, &sub.EmployeeID, &sub.FileName, &sub.FileURL, &sub.Status, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

package compliance

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"flow4ops/internal/platform/storage"
)

// FormStore is the slice of Store the service depends on. It is an
// interface so the upload flow can be tested without a database.
type FormStore interface {
	GetRequest(ctx context.Context, id string) (Request, error)
	ListOpenRequests(ctx context.Context, now time.Time) ([]Request, error)
	ListAllRequests(ctx context.Context) ([]Request, error)
	CreateRequest(ctx context.Context, r Request) (Request, error)
	InsertSubmission(ctx context.Context, sub Submission) (Submission, error)
	SubmittedRequestIDs(ctx context.Context, employeeID string) (map[string]struct{}, error)
	CountDistinctSubmitters(ctx context.Context, requestID string) (int, error)
}

// EmployeeCounter supplies the denominator for completion rates.
type EmployeeCounter interface {
	CountActiveEmployees(ctx context.Context) (int, error)
}

type Service struct {
	Store     FormStore
	Storage   storage.Store
	Employees EmployeeCounter
	Bucket    string
	Log       *zap.Logger
}

func NewService(store FormStore, objects storage.Store, employees EmployeeCounter, bucket string, log *zap.Logger) *Service {
	return &Service{Store: store, Storage: objects, Employees: employees, Bucket: bucket, Log: log}
}

// Submit stores the uploaded document and records the submission.
// A submission without file content is rejected before anything is
// written. Re-submitting for the same request is allowed; HR sees the
// employee as done either way.
func (s *Service) Submit(ctx context.Context, employeeID, requestID, fileName, contentType string, data []byte) (Submission, error) {
	if len(data) == 0 {
		return Submission{}, ErrNoFile
	}

	if _, err := s.Store.GetRequest(ctx, requestID); err != nil {
		return Submission{}, err
	}

	key := fmt.Sprintf("%s/%s-%d%s", employeeID, requestID, time.Now().UnixMilli(), filepath.Ext(fileName))
	url, err := s.Storage.Upload(ctx, s.Bucket, key, data, contentType)
	if err != nil {
		return Submission{}, fmt.Errorf("upload document: %w", err)
	}

	sub, err := s.Store.InsertSubmission(ctx, Submission{
		RequestID:  requestID,
		EmployeeID: employeeID,
		FileName:   fileName,
		FileURL:    url,
	})
	if err != nil {
		return Submission{}, err
	}

	s.Log.Info("compliance submission recorded",
		zap.String("employeeId", employeeID),
		zap.String("requestId", requestID),
		zap.String("key", key))
	return sub, nil
}

// PendingForEmployee returns the open requests the employee has not
// submitted for yet, decorated with urgency, and the count of completed
// ones.
func (s *Service) PendingForEmployee(ctx context.Context, employeeID string, now time.Time) (pending []RequestStatus, completed int, err error) {
	open, err := s.Store.ListOpenRequests(ctx, now)
	if err != nil {
		return nil, 0, err
	}
	done, err := s.Store.SubmittedRequestIDs(ctx, employeeID)
	if err != nil {
		return nil, 0, err
	}

	for _, req := range open {
		if _, ok := done[req.ID]; ok {
			completed++
			continue
		}
		pending = append(pending, RequestStatus{
			Request: req,
			Urgency: DueUrgency(req.DueDate, now),
		})
	}
	return pending, completed, nil
}

// StatusBoard returns every open request with workforce-level completion
// figures for the HR dashboard and the exported report.
func (s *Service) StatusBoard(ctx context.Context, now time.Time) ([]RequestStatus, error) {
	open, err := s.Store.ListOpenRequests(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.board(ctx, open, now)
}

// FullStatusBoard returns every request, overdue ones included. The HR
// management page uses it so a past-due form stays visible, flagged
// Overdue, until HR resolves it.
func (s *Service) FullStatusBoard(ctx context.Context, now time.Time) ([]RequestStatus, error) {
	all, err := s.Store.ListAllRequests(ctx)
	if err != nil {
		return nil, err
	}
	return s.board(ctx, all, now)
}

func (s *Service) board(ctx context.Context, requests []Request, now time.Time) ([]RequestStatus, error) {
	total, err := s.Employees.CountActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	board := make([]RequestStatus, 0, len(requests))
	for _, req := range requests {
		submitted, err := s.Store.CountDistinctSubmitters(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		pending := total - submitted
		if pending < 0 {
			pending = 0
		}
		board = append(board, RequestStatus{
			Request:        req,
			Submitted:      submitted,
			Pending:        pending,
			TotalEmployees: total,
			CompletionRate: CompletionRate(submitted, total),
			Urgency:        DueUrgency(req.DueDate, now),
		})
	}
	return board, nil
}

// CreateRequest validates and records a new form request from HR.
func (s *Service) CreateRequest(ctx context.Context, r Request) (Request, error) {
	if !ValidFormType(r.FormType) {
		return Request{}, fmt.Errorf("compliance: unknown form type %q", r.FormType)
	}
	if r.Title == "" {
		r.Title = DisplayName(r.FormType)
	}
	return s.Store.CreateRequest(ctx, r)
}

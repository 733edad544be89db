package leave

import (
	"context"
	"time"

	"go.uber.org/zap"

	"flow4ops/internal/domain/directory"
)

type Service struct {
	Store     *Store
	Directory *directory.Store
	Log       *zap.Logger
}

func NewService(store *Store, dir *directory.Store, log *zap.Logger) *Service {
	return &Service{Store: store, Directory: dir, Log: log}
}

// Request validates and files a new leave request. Days are derived from
// the date range, never taken from the form.
func (s *Service) Request(ctx context.Context, employeeID, leaveType string, start, end time.Time, reason string) (Request, error) {
	if !ValidType(leaveType) {
		leaveType = TypeOther
	}
	if end.Before(start) {
		return Request{}, ErrInvalidRange
	}

	r, err := s.Store.Create(ctx, Request{
		EmployeeID:    employeeID,
		LeaveType:     leaveType,
		StartDate:     start,
		EndDate:       end,
		DaysRequested: DaysRequested(start, end),
		Reason:        reason,
	})
	if err != nil {
		return Request{}, err
	}

	s.Log.Info("leave request filed",
		zap.String("employeeId", employeeID),
		zap.String("leaveType", leaveType),
		zap.Int("days", r.DaysRequested))
	return r, nil
}

func (s *Service) Approve(ctx context.Context, id, deciderID, notes string) (Request, error) {
	return s.Store.Decide(ctx, id, deciderID, StatusApproved, notes)
}

func (s *Service) Deny(ctx context.Context, id, deciderID, notes string) (Request, error) {
	return s.Store.Decide(ctx, id, deciderID, StatusDenied, notes)
}

// Balances returns the dashboard cards for one employee.
func (s *Service) Balances(ctx context.Context, employeeID string) ([]Balance, error) {
	u, err := s.Directory.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return []Balance{
		NewBalance("Annual Leave", u.AnnualLeaveTotal, u.AnnualLeaveUsed),
		NewBalance("Sick Leave", u.SickLeaveTotal, u.SickLeaveUsed),
	}, nil
}

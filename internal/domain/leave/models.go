// Package leave handles employee leave requests and HR decisions on them.
package leave

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("leave: request not found")
	ErrAlreadyFinal = errors.New("leave: request already decided")
	ErrInvalidRange = errors.New("leave: end date before start date")
)

// Leave types accepted on the request form.
const (
	TypeAnnual = "annual"
	TypeSick   = "sick"
	TypeUnpaid = "unpaid"
	TypeOther  = "other"
)

// Request lifecycle.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

type Request struct {
	ID            string
	EmployeeID    string
	LeaveType     string
	StartDate     time.Time
	EndDate       time.Time
	DaysRequested int
	Reason        string
	Status        string
	Notes         string
	DecidedBy     string
	DecidedAt     *time.Time
	CreatedAt     time.Time
}

// RequestWithEmployee joins the requester's name and department onto a
// request for the HR queue.
type RequestWithEmployee struct {
	Request
	EmployeeName  string
	EmployeeEmail string
	Department    string
}

// Balance is one leave category on the employee dashboard. Remaining is
// total minus used without clamping, so an over-allocation shows up as a
// negative number rather than hiding.
type Balance struct {
	Label     string
	Total     int
	Used      int
	Remaining int
}

func NewBalance(label string, total, used int) Balance {
	return Balance{Label: label, Total: total, Used: used, Remaining: total - used}
}

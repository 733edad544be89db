// Package compliance covers HR form requests, employee submissions, and
// the status rollups shown on both dashboards.
package compliance

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("compliance: request not found")
	ErrNoFile   = errors.New("compliance: submission requires a file")
)

// Form types accepted by the submission flow.
const (
	FormEEA1                 = "eea1"
	FormDisclosureOfInterest = "disclosure_of_interest"
	FormPolicyAcknowledgment = "policy_acknowledgment"
	FormOther                = "other"
)

type Request struct {
	ID          string
	FormType    string
	Title       string
	Description string
	DueDate     time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

// TypeName is the human label for the request's form type.
func (r Request) TypeName() string {
	return DisplayName(r.FormType)
}

type Submission struct {
	ID          string
	RequestID   string
	EmployeeID  string
	FileName    string
	FileURL     string
	Status      string
	SubmittedAt time.Time
}

// StatusSubmitted is the only submission status today; the column exists
// so a review step can be added without a schema change.
const StatusSubmitted = "submitted"

// SubmissionWithEmployee joins the submitter's name onto a submission for
// the HR compliance table.
type SubmissionWithEmployee struct {
	Submission
	EmployeeName  string
	EmployeeEmail string
}

// RequestStatus is one open request decorated with how far the workforce
// has got with it.
type RequestStatus struct {
	Request
	Submitted      int
	Pending        int
	TotalEmployees int
	CompletionRate int
	Urgency        string
}

// Package notifications delivers compliance reminder emails to employees
// with outstanding form submissions.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/directory"
)

// Mailer sends a single plain-text message. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Mailer    Mailer
	Directory *directory.Store
	Forms     *compliance.Store
	From      string
	BaseURL   string
	Log       *zap.Logger
}

func NewService(mailer Mailer, dir *directory.Store, forms *compliance.Store, from, baseURL string, log *zap.Logger) *Service {
	return &Service{Mailer: mailer, Directory: dir, Forms: forms, From: from, BaseURL: baseURL, Log: log}
}

// SendComplianceReminders emails every active employee who has not yet
// submitted the given form request. It returns the number of reminders
// sent; individual delivery failures are logged and skipped so one bad
// address does not block the rest of the batch.
func (s *Service) SendComplianceReminders(ctx context.Context, requestID string) (int, error) {
	req, err := s.Forms.GetRequest(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("load compliance request: %w", err)
	}

	employees, err := s.Directory.ListActiveEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("list employees: %w", err)
	}

	submitted, err := s.Forms.SubmitterIDs(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("list submitters: %w", err)
	}

	sent := 0
	for _, emp := range employees {
		if _, ok := submitted[emp.ID]; ok {
			continue
		}

		subject := fmt.Sprintf("Reminder: %s due %s", compliance.DisplayName(req.FormType), req.DueDate.Format("2 Jan 2006"))
		body := s.reminderBody(emp.Name, req)
		if err := s.Mailer.Send(ctx, s.From, emp.Email, subject, body); err != nil {
			s.Log.Warn("reminder delivery failed",
				zap.String("email", emp.Email),
				zap.String("requestId", requestID),
				zap.Error(err))
			continue
		}
		sent++
	}

	return sent, nil
}

func (s *Service) reminderBody(name string, req compliance.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "This is a reminder that your %s is due on %s.\n\n",
		compliance.DisplayName(req.FormType), req.DueDate.Format("Monday, 2 January 2006"))
	if req.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", req.Description)
	}
	fmt.Fprintf(&b, "Submit it here: %s/compliance/submit?request=%s\n\n", s.BaseURL, req.ID)
	b.WriteString("Thanks,\nThe People Ops team\n")
	return b.String()
}

package web

import (
	"strings"
	"testing"
	"time"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/identity"
	"flow4ops/internal/domain/leave"
)

func TestNewRendererParsesEveryPage(t *testing.T) {
	if _, err := NewRenderer(); err != nil {
		t.Fatalf("renderer: %v", err)
	}
}

func TestRenderLoginAnonymous(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	var b strings.Builder
	page := struct {
		User   *identity.SessionUser
		IsHR   bool
		Error  string
		Notice string
	}{Error: "Invalid email or password."}

	if err := r.Render(&b, "login", page); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Sign in") {
		t.Fatal("expected the sign-in form")
	}
	if !strings.Contains(out, "Invalid email or password.") {
		t.Fatal("expected the error banner")
	}
	if strings.Contains(out, "<nav>") {
		t.Fatal("anonymous pages must not show the nav")
	}
}

func TestRenderEmployeeDashboard(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	user := identity.SessionUser{ID: "u1", Name: "John Employee", Role: "employee"}
	page := struct {
		User           *identity.SessionUser
		IsHR           bool
		Error          string
		Notice         string
		PendingForms   []compliance.RequestStatus
		CompletedForms int
		Balances       []leave.Balance
		LeaveRequests  []leave.Request
	}{
		User: &user,
		PendingForms: []compliance.RequestStatus{{
			Request: compliance.Request{ID: "r1", Title: "EEA1 Form", FormType: compliance.FormEEA1, DueDate: time.Now().AddDate(0, 0, 2)},
			Urgency: compliance.UrgencyUrgent,
		}},
		Balances: []leave.Balance{leave.NewBalance("Annual Leave", 21, 4)},
	}

	var b strings.Builder
	if err := r.Render(&b, "employee_dashboard", page); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"John Employee", "EEA1 Form", "Urgent", "17"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in the rendered page", want)
		}
	}
}

func TestRenderSubmitPageWithoutRequest(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	user := identity.SessionUser{ID: "u1", Name: "John Employee", Role: "employee"}
	page := struct {
		User    *identity.SessionUser
		IsHR    bool
		Error   string
		Notice  string
		Request compliance.Request
	}{User: &user, Error: "The upload was too large or malformed."}

	var b strings.Builder
	if err := r.Render(&b, "compliance_submit", page); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "The upload was too large or malformed.") {
		t.Fatal("expected the error banner")
	}
	if !strings.Contains(out, "Submit a compliance form") {
		t.Fatal("expected the generic heading when no request is loaded")
	}
	if strings.Contains(out, "0001") {
		t.Fatal("a zero-value request must not leak into the page")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if err := r.Render(&strings.Builder{}, "missing", nil); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

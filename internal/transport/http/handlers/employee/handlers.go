package employeehandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/identity"
	"flow4ops/internal/domain/leave"
	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/middleware"
	"flow4ops/internal/transport/http/shared"
	"flow4ops/internal/web"
)

type Handler struct {
	Compliance *compliance.Service
	FormStore  *compliance.Store
	Leave      *leave.Service
	Renderer   *web.Renderer
	Log        *zap.Logger
}

func NewHandler(forms *compliance.Service, formStore *compliance.Store, leaveSvc *leave.Service, renderer *web.Renderer, log *zap.Logger) *Handler {
	return &Handler{Compliance: forms, FormStore: formStore, Leave: leaveSvc, Renderer: renderer, Log: log}
}

type dashboardPage struct {
	User           *identity.SessionUser
	IsHR           bool
	Error          string
	Notice         string
	PendingForms   []compliance.RequestStatus
	CompletedForms int
	Balances       []leave.Balance
	LeaveRequests  []leave.Request
}

// HandleDashboard renders the employee home. Each section loads
// independently; a failing section logs and renders empty rather than
// blanking the whole page.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := dashboardPage{User: &user}

	pending, completed, err := h.Compliance.PendingForEmployee(r.Context(), user.ID, time.Now())
	if err != nil {
		h.logSectionError(r, "compliance", err)
	} else {
		page.PendingForms = pending
		page.CompletedForms = completed
	}

	if balances, err := h.Leave.Balances(r.Context(), user.ID); err != nil {
		h.logSectionError(r, "balances", err)
	} else {
		page.Balances = balances
	}

	if requests, err := h.Leave.Store.ListByEmployee(r.Context(), user.ID); err != nil {
		h.logSectionError(r, "leave", err)
	} else {
		if len(requests) > 5 {
			requests = requests[:5]
		}
		page.LeaveRequests = requests
	}

	h.render(w, r, "employee_dashboard", page)
}

type compliancePage struct {
	User         *identity.SessionUser
	IsHR         bool
	Error        string
	Notice       string
	PendingForms []compliance.RequestStatus
	Submissions  []compliance.Submission
}

func (h *Handler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := compliancePage{User: &user, Notice: noticeFromQuery(r)}

	pending, _, err := h.Compliance.PendingForEmployee(r.Context(), user.ID, time.Now())
	if err != nil {
		h.logSectionError(r, "compliance", err)
	} else {
		page.PendingForms = pending
	}

	if subs, err := h.FormStore.ListSubmissionsByEmployee(r.Context(), user.ID); err != nil {
		h.logSectionError(r, "submissions", err)
	} else {
		page.Submissions = subs
	}

	h.render(w, r, "employee_compliance", page)
}

type leavePage struct {
	User     *identity.SessionUser
	IsHR     bool
	Error    string
	Notice   string
	Balances []leave.Balance
	Requests []leave.Request
}

func (h *Handler) HandleLeavePage(w http.ResponseWriter, r *http.Request) {
	h.renderLeave(w, r, "", noticeFromQuery(r))
}

// HandleLeaveCreate files a leave request from the form and re-renders
// the page with the outcome.
func (h *Handler) HandleLeaveCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderLeave(w, r, "Invalid form submission.", "")
		return
	}

	start, err := shared.ParseDate(r.PostFormValue("start_date"))
	if err != nil {
		h.renderLeave(w, r, "Enter a valid start date.", "")
		return
	}
	end, err := shared.ParseDate(r.PostFormValue("end_date"))
	if err != nil {
		h.renderLeave(w, r, "Enter a valid end date.", "")
		return
	}

	_, err = h.Leave.Request(r.Context(), user.ID,
		r.PostFormValue("leave_type"), start, end,
		strings.TrimSpace(r.PostFormValue("reason")))
	if errors.Is(err, leave.ErrInvalidRange) {
		h.renderLeave(w, r, "The end date must not be before the start date.", "")
		return
	}
	if err != nil {
		h.logSectionError(r, "leave create", err)
		h.renderLeave(w, r, "Could not file the request, try again.", "")
		return
	}

	http.Redirect(w, r, "/employee/leave?ok=requested", http.StatusSeeOther)
}

func (h *Handler) renderLeave(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	user, _ := middleware.GetUser(r.Context())
	page := leavePage{User: &user, Error: errMsg, Notice: notice}

	if balances, err := h.Leave.Balances(r.Context(), user.ID); err != nil {
		h.logSectionError(r, "balances", err)
	} else {
		page.Balances = balances
	}
	if requests, err := h.Leave.Store.ListByEmployee(r.Context(), user.ID); err != nil {
		h.logSectionError(r, "leave", err)
	} else {
		page.Requests = requests
	}

	h.render(w, r, "employee_leave", page)
}

func noticeFromQuery(r *http.Request) string {
	switch r.URL.Query().Get("ok") {
	case "requested":
		return "Leave request filed."
	case "submitted":
		return "Form submitted, thank you."
	}
	return ""
}

func (h *Handler) logSectionError(r *http.Request, section string, err error) {
	h.Log.Error("dashboard section failed",
		zap.String("section", section),
		zap.String("requestId", requestctx.GetRequestID(r.Context())),
		zap.Error(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, page any) {
	if err := h.Renderer.Render(w, name, page); err != nil {
		h.Log.Error("render failed", zap.String("template", name), zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
	}
}

package hrhandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/directory"
	"flow4ops/internal/domain/identity"
	"flow4ops/internal/domain/leave"
	"flow4ops/internal/domain/notifications"
	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/middleware"
	"flow4ops/internal/transport/http/shared"
	"flow4ops/internal/web"
)

type Handler struct {
	Compliance *compliance.Service
	Leave      *leave.Service
	LeaveStore *leave.Store
	Directory  *directory.Store
	Reminders  *notifications.Service
	Renderer   *web.Renderer
	Log        *zap.Logger
}

func NewHandler(forms *compliance.Service, leaveSvc *leave.Service, leaveStore *leave.Store,
	dir *directory.Store, reminders *notifications.Service, renderer *web.Renderer, log *zap.Logger) *Handler {
	return &Handler{
		Compliance: forms,
		Leave:      leaveSvc,
		LeaveStore: leaveStore,
		Directory:  dir,
		Reminders:  reminders,
		Renderer:   renderer,
		Log:        log,
	}
}

// RequireHR protects the HR surface. The role comes from the directory
// rather than the token claims so a demotion takes effect on the next
// request instead of when the access token expires. If the lookup
// fails the claim decides. Non-HR users are sent to their own
// dashboard instead of getting an error page.
func RequireHR(roles middleware.RoleLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := middleware.GetUser(r.Context())
			if !ok {
				http.Redirect(w, r, "/employee/dashboard", http.StatusSeeOther)
				return
			}
			role, err := roles.RoleByID(r.Context(), user.ID)
			if err != nil {
				log.Warn("hr role lookup failed, falling back to token role",
					zap.String("userId", user.ID),
					zap.Error(err))
				role = user.Role
			}
			if !directory.IsHR(role) {
				http.Redirect(w, r, "/employee/dashboard", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type hrDashboardPage struct {
	User            *identity.SessionUser
	IsHR            bool
	Error           string
	Notice          string
	TotalEmployees  int
	Board           []compliance.RequestStatus
	PendingLeave    int
	PendingRequests []leave.RequestWithEmployee
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := hrDashboardPage{User: &user, IsHR: true}

	if total, err := h.Directory.CountActiveEmployees(r.Context()); err != nil {
		h.logSectionError(r, "employees", err)
	} else {
		page.TotalEmployees = total
	}

	if board, err := h.Compliance.StatusBoard(r.Context(), time.Now()); err != nil {
		h.logSectionError(r, "compliance board", err)
	} else {
		page.Board = board
	}

	if requests, err := h.LeaveStore.ListAllWithEmployee(r.Context()); err != nil {
		h.logSectionError(r, "leave", err)
	} else {
		for _, req := range requests {
			if req.Status == leave.StatusPending {
				page.PendingRequests = append(page.PendingRequests, req)
			}
		}
		page.PendingLeave = len(page.PendingRequests)
		if len(page.PendingRequests) > 5 {
			page.PendingRequests = page.PendingRequests[:5]
		}
	}

	h.render(w, r, "hr_dashboard", page)
}

type hrCompliancePage struct {
	User   *identity.SessionUser
	IsHR   bool
	Error  string
	Notice string
	Board  []compliance.RequestStatus
}

func (h *Handler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	h.renderCompliance(w, r, "", noticeFromQuery(r))
}

// HandleComplianceCreate files a new form request for the whole
// workforce.
func (h *Handler) HandleComplianceCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderCompliance(w, r, "Invalid form submission.", "")
		return
	}

	due, err := shared.ParseDate(r.PostFormValue("due_date"))
	if err != nil {
		h.renderCompliance(w, r, "Enter a valid due date.", "")
		return
	}

	_, err = h.Compliance.CreateRequest(r.Context(), compliance.Request{
		FormType:    r.PostFormValue("form_type"),
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		DueDate:     due,
		CreatedBy:   user.ID,
	})
	if err != nil {
		h.logSectionError(r, "create request", err)
		h.renderCompliance(w, r, "Could not create the request.", "")
		return
	}

	http.Redirect(w, r, "/hr/compliance?ok=created", http.StatusSeeOther)
}

// HandleComplianceRemind emails everyone who still owes the form.
func (h *Handler) HandleComplianceRemind(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderCompliance(w, r, "Invalid form submission.", "")
		return
	}

	sent, err := h.Reminders.SendComplianceReminders(r.Context(), r.PostFormValue("request_id"))
	if errors.Is(err, compliance.ErrNotFound) {
		h.renderCompliance(w, r, "That form request no longer exists.", "")
		return
	}
	if err != nil {
		h.logSectionError(r, "reminders", err)
		h.renderCompliance(w, r, "Could not send reminders.", "")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/hr/compliance?ok=reminded&count=%d", sent), http.StatusSeeOther)
}

// HandleComplianceExport streams the status board as a PDF.
func (h *Handler) HandleComplianceExport(w http.ResponseWriter, r *http.Request) {
	board, err := h.Compliance.StatusBoard(r.Context(), time.Now())
	if err != nil {
		h.logSectionError(r, "compliance board", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Compliance Status Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, "Generated "+time.Now().Format("2 Jan 2006 15:04"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 8, "Form", "1", 0, "L", false, 0, "")
	pdf.CellFormat(28, 8, "Due", "1", 0, "L", false, 0, "")
	pdf.CellFormat(28, 8, "Submitted", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, "Outstanding", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, "Completion", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range board {
		pdf.CellFormat(60, 8, row.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 8, row.DueDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 8, fmt.Sprintf("%d / %d", row.Submitted, row.TotalEmployees), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 8, fmt.Sprintf("%d", row.Pending), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 8, fmt.Sprintf("%d%%", row.CompletionRate), "1", 1, "R", false, 0, "")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="compliance-status.pdf"`)
	if err := pdf.Output(w); err != nil {
		h.Log.Error("pdf output failed", zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
	}
}

type hrLeavePage struct {
	User     *identity.SessionUser
	IsHR     bool
	Error    string
	Notice   string
	Pending  int
	Approved int
	Denied   int
	Requests []leave.RequestWithEmployee
}

func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.renderLeave(w, r, "", noticeFromQuery(r))
}

func (h *Handler) HandleLeaveApprove(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, leave.StatusApproved)
}

func (h *Handler) HandleLeaveDeny(w http.ResponseWriter, r *http.Request) {
	h.decideLeave(w, r, leave.StatusDenied)
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request, status string) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	notes := strings.TrimSpace(r.PostFormValue("notes"))

	var err error
	if status == leave.StatusApproved {
		_, err = h.Leave.Approve(r.Context(), id, user.ID, notes)
	} else {
		_, err = h.Leave.Deny(r.Context(), id, user.ID, notes)
	}

	switch {
	case errors.Is(err, leave.ErrNotFound):
		h.renderLeave(w, r, "That leave request no longer exists.", "")
	case errors.Is(err, leave.ErrAlreadyFinal):
		h.renderLeave(w, r, "That request was already decided.", "")
	case err != nil:
		h.logSectionError(r, "leave decision", err)
		h.renderLeave(w, r, "Could not record the decision.", "")
	default:
		http.Redirect(w, r, "/hr/leave?ok="+status, http.StatusSeeOther)
	}
}

func (h *Handler) renderCompliance(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	user, _ := middleware.GetUser(r.Context())
	page := hrCompliancePage{User: &user, IsHR: true, Error: errMsg, Notice: notice}

	if board, err := h.Compliance.FullStatusBoard(r.Context(), time.Now()); err != nil {
		h.logSectionError(r, "compliance board", err)
	} else {
		page.Board = board
	}

	h.render(w, r, "hr_compliance", page)
}

func (h *Handler) renderLeave(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	user, _ := middleware.GetUser(r.Context())
	page := hrLeavePage{User: &user, IsHR: true, Error: errMsg, Notice: notice}

	if requests, err := h.LeaveStore.ListAllWithEmployee(r.Context()); err != nil {
		h.logSectionError(r, "leave", err)
	} else {
		page.Requests = requests
		page.Pending, page.Approved, page.Denied = leave.CountByStatus(requests)
	}

	h.render(w, r, "hr_leave", page)
}

func noticeFromQuery(r *http.Request) string {
	switch r.URL.Query().Get("ok") {
	case "created":
		return "Form request created."
	case "reminded":
		count := r.URL.Query().Get("count")
		if count == "" {
			count = "0"
		}
		return "Sent " + count + " reminder(s)."
	case leave.StatusApproved:
		return "Leave request approved."
	case leave.StatusDenied:
		return "Leave request denied."
	}
	return ""
}

func (h *Handler) logSectionError(r *http.Request, section string, err error) {
	h.Log.Error("hr page section failed",
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

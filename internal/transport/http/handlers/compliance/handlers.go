package compliancehandler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/identity"
	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/middleware"
	"flow4ops/internal/web"
)

type Handler struct {
	Compliance     *compliance.Service
	Renderer       *web.Renderer
	MaxUploadBytes int64
	Log            *zap.Logger
}

func NewHandler(forms *compliance.Service, renderer *web.Renderer, maxUploadBytes int64, log *zap.Logger) *Handler {
	return &Handler{Compliance: forms, Renderer: renderer, MaxUploadBytes: maxUploadBytes, Log: log}
}

type submitPage struct {
	User    *identity.SessionUser
	IsHR    bool
	Error   string
	Notice  string
	Request compliance.Request
}

// HandleSubmitPage renders the upload form for one request, identified
// by the request query parameter.
func (h *Handler) HandleSubmitPage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requestID := strings.TrimSpace(r.URL.Query().Get("request"))
	if requestID == "" {
		http.Redirect(w, r, "/employee/compliance", http.StatusSeeOther)
		return
	}

	req, err := h.Compliance.Store.GetRequest(r.Context(), requestID)
	if errors.Is(err, compliance.ErrNotFound) {
		http.Redirect(w, r, "/employee/compliance", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.Log.Error("load compliance request failed", zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
		http.Redirect(w, r, "/employee/compliance", http.StatusSeeOther)
		return
	}

	h.render(w, r, submitPage{User: &user, Request: req})
}

// HandleSubmit accepts the multipart upload and records the submission.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.renderError(w, r, r.PostFormValue("request_id"), "The upload was too large or malformed.")
		return
	}

	requestID := r.PostFormValue("request_id")

	file, header, err := r.FormFile("document")
	if err != nil {
		h.renderError(w, r, requestID, "Attach the completed document before submitting.")
		return
	}
	defer file.Close()

	// Read one byte past the limit so an oversized file is detected and
	// rejected rather than silently stored truncated.
	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		h.renderError(w, r, requestID, "Could not read the uploaded file.")
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		h.renderError(w, r, requestID, "The file is too large.")
		return
	}

	_, err = h.Compliance.Submit(r.Context(), user.ID, requestID,
		header.Filename, header.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, compliance.ErrNoFile):
		h.renderError(w, r, requestID, "The uploaded file was empty.")
		return
	case errors.Is(err, compliance.ErrNotFound):
		http.Redirect(w, r, "/employee/compliance", http.StatusSeeOther)
		return
	case err != nil:
		h.Log.Error("submission failed", zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
		h.renderError(w, r, requestID, "Something went wrong storing your form, try again.")
		return
	}

	http.Redirect(w, r, "/employee/compliance?ok=submitted", http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, requestID, message string) {
	user, _ := middleware.GetUser(r.Context())
	page := submitPage{User: &user, Error: message}
	if requestID != "" {
		if req, err := h.Compliance.Store.GetRequest(r.Context(), requestID); err == nil {
			page.Request = req
		}
	}
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page submitPage) {
	if err := h.Renderer.Render(w, "compliance_submit", page); err != nil {
		h.Log.Error("render failed", zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
	}
}

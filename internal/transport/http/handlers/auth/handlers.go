package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"flow4ops/internal/domain/identity"
	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/api"
	"flow4ops/internal/transport/http/middleware"
	"flow4ops/internal/web"
)

type Handler struct {
	Identity *identity.Service
	Codec    *identity.Codec
	Renderer *web.Renderer
	Log      *zap.Logger
}

func NewHandler(svc *identity.Service, codec *identity.Codec, renderer *web.Renderer, log *zap.Logger) *Handler {
	return &Handler{Identity: svc, Codec: codec, Renderer: renderer, Log: log}
}

type loginPage struct {
	User   *identity.SessionUser
	IsHR   bool
	Error  string
	Notice string
}

// HandleLoginPage serves the sign-in form. The gate has already bounced
// authenticated visitors to their dashboard.
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginPage{})
}

// HandleLogin processes the sign-in form, sets the session cookie, and
// sends the user to the dashboard for their role.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, loginPage{Error: "Invalid form submission."})
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))
	password := r.PostFormValue("password")
	mfaCode := strings.TrimSpace(r.PostFormValue("mfa_code"))

	pair, user, err := h.Identity.SignInWithPassword(r.Context(), email, password, mfaCode)
	switch {
	case errors.Is(err, identity.ErrMFARequired):
		h.renderLogin(w, r, loginPage{Error: "Enter the code from your authenticator app."})
		return
	case errors.Is(err, identity.ErrMFAInvalid):
		h.renderLogin(w, r, loginPage{Error: "That authenticator code did not match."})
		return
	case err != nil:
		h.renderLogin(w, r, loginPage{Error: "Invalid email or password."})
		return
	}

	if !h.setSession(w, r, pair) {
		return
	}
	http.Redirect(w, r, middleware.DashboardPath(user.Role), http.StatusSeeOther)
}

// HandleCallback exchanges a one-time code from an email link for a
// session. Without a valid code the visitor is sent to the employee
// dashboard; the gate turns that into a login redirect for anyone
// without a live session.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		http.Redirect(w, r, "/employee/dashboard", http.StatusSeeOther)
		return
	}

	pair, user, err := h.Identity.ExchangeCodeForSession(r.Context(), code)
	if err != nil {
		h.Log.Warn("code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/employee/dashboard", http.StatusSeeOther)
		return
	}

	if !h.setSession(w, r, pair) {
		return
	}
	http.Redirect(w, r, middleware.DashboardPath(user.Role), http.StatusSeeOther)
}

// HandleLogout revokes the session server-side and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if pair, err := h.Codec.Decode(r); err == nil {
		if err := h.Identity.SignOut(r.Context(), pair.RefreshToken); err != nil {
			h.Log.Warn("session revoke failed", zap.Error(err))
		}
	}
	http.SetCookie(w, h.Codec.Clear())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh rotates a session over JSON for non-browser clients.
// Browser sessions refresh silently in the cookie middleware instead.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "refreshToken is required", requestID)
		return
	}

	pair, user, err := h.Identity.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "session_expired", "session expired, sign in again", requestID)
		return
	}

	api.Success(w, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         map[string]string{"id": user.ID, "email": user.Email, "name": user.Name, "role": user.Role},
	}, requestID)
}

func (h *Handler) setSession(w http.ResponseWriter, r *http.Request, pair identity.TokenPair) bool {
	cookie, err := h.Codec.Encode(pair)
	if err != nil {
		h.Log.Error("session cookie encode failed", zap.Error(err))
		h.renderLogin(w, r, loginPage{Error: "Something went wrong, try again."})
		return false
	}
	http.SetCookie(w, cookie)
	return true
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, page loginPage) {
	if page.Error != "" {
		w.WriteHeader(http.StatusUnauthorized)
	}
	if err := h.Renderer.Render(w, "login", page); err != nil {
		h.Log.Error("render login failed", zap.Error(err),
			zap.String("requestId", requestctx.GetRequestID(r.Context())))
	}
}

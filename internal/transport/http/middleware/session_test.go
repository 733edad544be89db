package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"flow4ops/internal/domain/identity"
)

type fakeResolver struct {
	user    identity.SessionUser
	rotated *identity.TokenPair
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, _ identity.TokenPair) (identity.SessionUser, *identity.TokenPair, error) {
	return f.user, f.rotated, f.err
}

type fakeRoles struct {
	roles map[string]string
	err   error
}

func (f *fakeRoles) RoleByID(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.roles[id], nil
}

func newCodec() *identity.Codec {
	return identity.NewCodec("test-hash-key", "test-block-key", false)
}

func authedRequest(t *testing.T, codec *identity.Codec, path string) *http.Request {
	t.Helper()
	cookie, err := codec.Encode(identity.TokenPair{AccessToken: "a", RefreshToken: "r"})
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(cookie)
	return req
}

func gateStack(codec *identity.Codec, resolver SessionResolver, roles RoleLookup) http.Handler {
	log := zap.NewNop()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return LoadUser(codec, resolver, log)(Gate(roles, log)(inner))
}

func TestGateRedirectsAnonymousFromEveryProtectedPath(t *testing.T) {
	codec := newCodec()
	h := gateStack(codec, &fakeResolver{err: identity.ErrSessionExpired}, &fakeRoles{})

	protected := []string{
		"/hr/dashboard",
		"/hr/compliance",
		"/hr/leave",
		"/employee/dashboard",
		"/employee/leave",
		"/compliance/submit",
	}
	for _, path := range protected {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected 303, got %d", path, rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %q", path, got)
		}
	}
}

func TestGateLeavesAnonymousPublicPathsAlone(t *testing.T) {
	h := gateStack(newCodec(), &fakeResolver{err: identity.ErrSessionExpired}, &fakeRoles{})

	for _, path := range []string{"/login", "/healthz", "/"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected pass-through, got %d", path, rec.Code)
		}
	}
}

func TestGateRoutesLandingPathsByRole(t *testing.T) {
	codec := newCodec()
	tests := []struct {
		role string
		want string
	}{
		{"hr", "/hr/dashboard"},
		{"admin", "/hr/dashboard"},
		{"employee", "/employee/dashboard"},
	}

	for _, tt := range tests {
		resolver := &fakeResolver{user: identity.SessionUser{ID: "u1", Role: tt.role}}
		roles := &fakeRoles{roles: map[string]string{"u1": tt.role}}
		h := gateStack(codec, resolver, roles)

		for _, path := range []string{"/", "/login", "/dashboard"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, authedRequest(t, codec, path))
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("role %s %s: expected 303, got %d", tt.role, path, rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Fatalf("role %s %s: expected %s, got %q", tt.role, path, tt.want, got)
			}
		}
	}
}

func TestGateDefaultsToEmployeeDashboardWhenRoleLookupFails(t *testing.T) {
	codec := newCodec()
	resolver := &fakeResolver{user: identity.SessionUser{ID: "u1"}}
	h := gateStack(codec, resolver, &fakeRoles{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, codec, "/dashboard"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/employee/dashboard" {
		t.Fatalf("expected fallback to employee dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGatePassesAuthenticatedNonLandingRequests(t *testing.T) {
	codec := newCodec()
	resolver := &fakeResolver{user: identity.SessionUser{ID: "u1", Role: "employee"}}
	h := gateStack(codec, resolver, &fakeRoles{roles: map[string]string{"u1": "employee"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, codec, "/employee/dashboard"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through for authenticated protected request, got %d", rec.Code)
	}
}

func TestLoadUserRewritesCookieOnRotation(t *testing.T) {
	codec := newCodec()
	rotated := &identity.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}
	resolver := &fakeResolver{user: identity.SessionUser{ID: "u1", Role: "employee"}, rotated: rotated}
	h := gateStack(codec, resolver, &fakeRoles{roles: map[string]string{"u1": "employee"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, codec, "/employee/dashboard"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == identity.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected a rewritten session cookie")
	}
}

func TestLoadUserClearsCookieForDeadSession(t *testing.T) {
	codec := newCodec()
	h := gateStack(codec, &fakeResolver{err: identity.ErrSessionExpired}, &fakeRoles{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, codec, "/login"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == identity.CookieName {
			session = c
		}
	}
	if session == nil || session.MaxAge != -1 {
		t.Fatal("expected the dead session cookie to be cleared")
	}
}

func TestIsProtectedPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/hr/dashboard":       true,
		"/employee/leave":     true,
		"/compliance/submit":  true,
		"/hr":                 true,
		"/login":              false,
		"/":                   false,
		"/healthz":            false,
		"/files/compliance-forms/a/b.pdf": false,
	} {
		if got := IsProtectedPath(path); got != want {
			t.Fatalf("IsProtectedPath(%q) = %v, want %v", path, got, want)
		}
	}
}

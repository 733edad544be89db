package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"flow4ops/internal/domain/directory"
	"flow4ops/internal/domain/identity"
)

// SessionResolver turns the cookie's token pair into a user. When the
// access token has expired but the session is still live it returns a
// fresh pair that must be written back to the cookie.
type SessionResolver interface {
	Resolve(ctx context.Context, pair identity.TokenPair) (identity.SessionUser, *identity.TokenPair, error)
}

// RoleLookup resolves the current role for landing-path redirects. Kept
// separate from the resolver so the gate does not trust a stale role
// baked into an old token.
type RoleLookup interface {
	RoleByID(ctx context.Context, id string) (string, error)
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user. LoadUser
// installs it; handler tests use it to fake a signed-in request.
func WithUser(ctx context.Context, user identity.SessionUser) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the authenticated user placed by LoadUser, if any.
func GetUser(ctx context.Context) (identity.SessionUser, bool) {
	user, ok := ctx.Value(userKey{}).(identity.SessionUser)
	return user, ok
}

// LoadUser decodes the session cookie and resolves it to a user. A
// missing or broken cookie is not an error here; the request simply
// proceeds anonymous and the gate decides what that means per path.
// When resolution produced a rotated token pair the cookie is rewritten
// before the handler runs.
func LoadUser(codec *identity.Codec, resolver SessionResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pair, err := codec.Decode(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, rotated, err := resolver.Resolve(r.Context(), pair)
			if err != nil {
				// Expired or revoked session. Drop the cookie so the
				// client stops presenting it.
				http.SetCookie(w, codec.Clear())
				next.ServeHTTP(w, r)
				return
			}

			if rotated != nil {
				cookie, err := codec.Encode(*rotated)
				if err != nil {
					log.Warn("session cookie rewrite failed", zap.Error(err))
				} else {
					http.SetCookie(w, cookie)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Landing paths route by role instead of serving content.
func isLandingPath(path string) bool {
	return path == "/" || path == "/login" || path == "/dashboard"
}

// IsProtectedPath reports whether a path requires authentication.
func IsProtectedPath(path string) bool {
	for _, prefix := range []string{"/hr/", "/employee/", "/compliance/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	switch path {
	case "/hr", "/employee", "/compliance":
		return true
	}
	return false
}

// DashboardPath maps a role to its home surface.
func DashboardPath(role string) string {
	if directory.IsHR(role) {
		return "/hr/dashboard"
	}
	return "/employee/dashboard"
}

// Gate enforces the access rules for every page. Anonymous requests to
// protected paths bounce to the login page. Authenticated requests to
// the landing paths are routed to the dashboard for the user's current
// role; if the role cannot be read the employee dashboard is the safe
// landing, since the HR surface re-checks the role itself.
func Gate(roles RoleLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, authenticated := GetUser(r.Context())
			path := r.URL.Path

			if !authenticated {
				if IsProtectedPath(path) {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if isLandingPath(path) {
				role, err := roles.RoleByID(r.Context(), user.ID)
				if err != nil {
					log.Warn("role lookup failed, landing on employee dashboard",
						zap.String("userId", user.ID),
						zap.Error(err))
					http.Redirect(w, r, "/employee/dashboard", http.StatusSeeOther)
					return
				}
				http.Redirect(w, r, DashboardPath(role), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

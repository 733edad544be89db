package identity

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCode        = errors.New("invalid or expired code")
)

// SessionUser is the resolved caller identity carried in request context.
type SessionUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// TokenPair is what the session cookie carries: a short-lived access JWT
// and an opaque refresh token backed by a server-side session row.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthUser is the credentials row loaded for sign-in.
type AuthUser struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

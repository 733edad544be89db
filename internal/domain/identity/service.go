package identity

import (
	"context"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	cryptoutil "flow4ops/internal/platform/crypto"
)

// Service is the identity/session provider: password sign-in, one-time-code
// exchange, cookie resolution with silent refresh, explicit refresh, and
// sign-out.
type Service struct {
	Store      *Store
	Crypto     *cryptoutil.Service
	Secret     string
	AccessTTL  time.Duration
	SessionTTL time.Duration
	Log        *zap.Logger
}

func NewService(store *Store, crypto *cryptoutil.Service, secret string, accessTTL, sessionTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		Store:      store,
		Crypto:     crypto,
		Secret:     secret,
		AccessTTL:  accessTTL,
		SessionTTL: sessionTTL,
		Log:        log,
	}
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password, mfaCode string) (TokenPair, SessionUser, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, SessionUser{}, ErrInvalidCredentials
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, SessionUser{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return TokenPair{}, SessionUser{}, ErrMFARequired
		}
		secret := string(user.MFASecretEnc)
		if s.Crypto != nil && s.Crypto.Configured() {
			decoded, err := s.Crypto.DecryptString(user.MFASecretEnc)
			if err != nil {
				return TokenPair{}, SessionUser{}, ErrMFAInvalid
			}
			secret = decoded
		}
		if secret == "" || !totp.Validate(mfaCode, secret) {
			return TokenPair{}, SessionUser{}, ErrMFAInvalid
		}
	}

	pair, sessionUser, err := s.issueSession(ctx, user)
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.Log.Warn("update last_login failed", zap.String("userId", user.ID), zap.Error(err))
	}
	return pair, sessionUser, nil
}

// ExchangeCodeForSession trades a one-time sign-in code (from a confirmation
// link) for a session.
func (s *Service) ExchangeCodeForSession(ctx context.Context, code string) (TokenPair, SessionUser, error) {
	userID, err := s.Store.ConsumeAuthCode(ctx, HashToken(code))
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}
	user, err := s.Store.AuthUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, SessionUser{}, ErrInvalidCode
	}
	return s.issueSessionAndTouch(ctx, user)
}

// Resolve turns a cookie token pair into a user. When the access token has
// expired it refreshes the session once; the returned pair is non-nil only
// when the caller must rewrite the cookie.
func (s *Service) Resolve(ctx context.Context, pair TokenPair) (SessionUser, *TokenPair, error) {
	if claims, err := ParseToken(s.Secret, pair.AccessToken); err == nil {
		return SessionUser{ID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil, nil
	}

	refreshed, user, err := s.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		return SessionUser{}, nil, err
	}
	return user, &refreshed, nil
}

// Refresh rotates the server-side session and issues a fresh token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, SessionUser, error) {
	if refreshToken == "" {
		return TokenPair{}, SessionUser{}, ErrSessionExpired
	}

	oldHash := HashToken(refreshToken)
	userID, err := s.Store.SessionUserID(ctx, oldHash)
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	user, err := s.Store.AuthUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, SessionUser{}, ErrSessionExpired
	}

	newToken, err := NewOpaqueToken()
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}
	if err := s.Store.RotateSession(ctx, oldHash, HashToken(newToken), time.Now().Add(s.SessionTTL)); err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	access, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, s.AccessTTL)
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: newToken},
		SessionUser{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, HashToken(refreshToken))
}

func (s *Service) issueSession(ctx context.Context, user AuthUser) (TokenPair, SessionUser, error) {
	refreshToken, err := NewOpaqueToken()
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}
	if err := s.Store.CreateSession(ctx, user.ID, HashToken(refreshToken), time.Now().Add(s.SessionTTL)); err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	access, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, s.AccessTTL)
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refreshToken},
		SessionUser{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

func (s *Service) issueSessionAndTouch(ctx context.Context, user AuthUser) (TokenPair, SessionUser, error) {
	pair, sessionUser, err := s.issueSession(ctx, user)
	if err != nil {
		return TokenPair{}, SessionUser{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.Log.Warn("update last_login failed", zap.String("userId", user.ID), zap.Error(err))
	}
	return pair, sessionUser, nil
}

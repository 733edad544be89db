package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var user AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, password_hash, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1 AND is_active = TRUE
  `, email).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.MFAEnabled, &user.MFASecretEnc)
	if err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (s *Store) AuthUserByID(ctx context.Context, userID string) (AuthUser, error) {
	var user AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, password_hash, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE id = $1 AND is_active = TRUE
  `, userID).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.MFAEnabled, &user.MFASecretEnc)
	if err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, userID, refreshTokenHash, expires)
	return err
}

// SessionUserID returns the owner of a live session, or an error when the
// refresh token is unknown, expired, or revoked.
func (s *Store) SessionUserID(ctx context.Context, refreshTokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM sessions
    WHERE refresh_token = $1 AND expires_at > now() AND revoked_at IS NULL
  `, refreshTokenHash).Scan(&userID)
	if err != nil {
		return "", ErrSessionExpired
	}
	return userID, nil
}

func (s *Store) RotateSession(ctx context.Context, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE refresh_token = $3 AND expires_at > now() AND revoked_at IS NULL
  `, newHash, expires, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionExpired
	}
	return nil
}

func (s *Store) RevokeSession(ctx context.Context, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE refresh_token = $1", refreshTokenHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

// ConsumeAuthCode marks a one-time sign-in code used and returns its owner.
func (s *Store) ConsumeAuthCode(ctx context.Context, codeHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    UPDATE auth_codes
    SET used_at = now()
    WHERE code_hash = $1 AND used_at IS NULL AND expires_at > now()
    RETURNING user_id
  `, codeHash).Scan(&userID)
	if err != nil {
		return "", ErrInvalidCode
	}
	return userID, nil
}

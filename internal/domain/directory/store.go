package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `id, email, name, role, department, is_active,
	annual_leave_total, annual_leave_used, sick_leave_total, sick_leave_used, created_at`

func (s *Store) GetByID(ctx context.Context, id string) (User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// RoleByID returns just the role column. The gate calls this on every
// request to the landing paths, so it stays a single-column lookup.
func (s *Store) RoleByID(ctx context.Context, id string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 AND is_active`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (s *Store) ListActiveEmployees(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+userColumns+`
		FROM users
		WHERE is_active AND role = $1
		ORDER BY name`, RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountActiveEmployees is the denominator for compliance completion.
func (s *Store) CountActiveEmployees(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active AND role = $1`, RoleEmployee).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Department, &u.IsActive,
		&u.AnnualLeaveTotal, &u.AnnualLeaveUsed, &u.SickLeaveTotal, &u.SickLeaveUsed, &u.CreatedAt)
	return u, err
}
